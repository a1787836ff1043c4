package repository

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoredImage is an open image download. Callers must close Body.
type StoredImage struct {
	Company     primitive.ObjectID
	Filename    string
	ContentType string
	Length      int64
	Body        io.ReadCloser
}

type ImageRepository interface {
	Upload(ctx context.Context, filename string, data io.Reader, uploadedBy, company primitive.ObjectID, contentType string) (primitive.ObjectID, error)
	Download(ctx context.Context, fileID primitive.ObjectID) (*StoredImage, error)
	Delete(ctx context.Context, fileID primitive.ObjectID) error
}

type imageRepository struct {
	bucket *gridfs.Bucket
}

func NewImageRepository(db *mongo.Database) ImageRepository {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("taskimages"))
	if err != nil {
		panic(fmt.Sprintf("Failed to create GridFS bucket: %v", err))
	}

	return &imageRepository{
		bucket: bucket,
	}
}

func (r *imageRepository) Upload(ctx context.Context, filename string, data io.Reader, uploadedBy, company primitive.ObjectID, contentType string) (primitive.ObjectID, error) {
	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{
		"uploadedBy":  uploadedBy,
		"company":     company,
		"uploadedAt":  time.Now(),
		"contentType": contentType,
	})

	fileID, err := r.bucket.UploadFromStream(filename, data, uploadOpts)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to upload image to GridFS: %w", err)
	}
	return fileID, nil
}

func (r *imageRepository) Download(ctx context.Context, fileID primitive.ObjectID) (*StoredImage, error) {
	stream, err := r.bucket.OpenDownloadStream(fileID)
	if err != nil {
		if err == gridfs.ErrFileNotFound {
			return nil, fmt.Errorf("image %s: %w", fileID.Hex(), mongo.ErrNoDocuments)
		}
		return nil, fmt.Errorf("failed to open image from GridFS: %w", err)
	}

	file := stream.GetFile()
	image := &StoredImage{
		Filename:    file.Name,
		ContentType: "application/octet-stream",
		Length:      file.Length,
		Body:        stream,
	}
	if len(file.Metadata) > 0 {
		var meta struct {
			Company     primitive.ObjectID `bson:"company"`
			ContentType string             `bson:"contentType"`
		}
		if err := bson.Unmarshal(file.Metadata, &meta); err == nil {
			image.Company = meta.Company
			if meta.ContentType != "" {
				image.ContentType = meta.ContentType
			}
		}
	}
	return image, nil
}

func (r *imageRepository) Delete(ctx context.Context, fileID primitive.ObjectID) error {
	if err := r.bucket.Delete(fileID); err != nil {
		if err == gridfs.ErrFileNotFound {
			return fmt.Errorf("image %s: %w", fileID.Hex(), mongo.ErrNoDocuments)
		}
		return err
	}
	return nil
}
