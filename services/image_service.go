package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"retailtasks/logging"
	"retailtasks/metrics"
	"retailtasks/models"
	repository "retailtasks/repositories"
	"retailtasks/utils"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MaxImageSize is the largest accepted task image.
const MaxImageSize = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ImageUpload is one file received for a task.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// ImageService stores task images. Calls to the store go through a circuit
// breaker; an open breaker fails fast with a 503.
type ImageService interface {
	Upload(ctx context.Context, actor models.Actor, upload ImageUpload) (models.Image, error)
	// Open only returns images uploaded within the actor's company.
	Open(ctx context.Context, actor models.Actor, fileID primitive.ObjectID) (*repository.StoredImage, error)
	Delete(ctx context.Context, fileID primitive.ObjectID) error
}

type imageService struct {
	repo    repository.ImageRepository
	breaker *gobreaker.CircuitBreaker
}

func NewImageService(repo repository.ImageRepository) ImageService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "image-store",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, mongo.ErrNoDocuments)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	return &imageService{
		repo:    repo,
		breaker: breaker,
	}
}

// ImageURL is the download path of a stored image.
func ImageURL(fileID primitive.ObjectID) string {
	return "/api/images/" + fileID.Hex()
}

func (s *imageService) Upload(ctx context.Context, actor models.Actor, upload ImageUpload) (models.Image, error) {
	if upload.Size > MaxImageSize {
		return models.Image{}, utils.BadRequest("Image too large (max 10MB)")
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(upload.ContentType, ";", 2)[0]))
	if !allowedImageTypes[contentType] {
		return models.Image{}, utils.BadRequest(fmt.Sprintf("Unsupported image type %q", upload.ContentType))
	}
	filename := filepath.Base(upload.Filename)

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.repo.Upload(ctx, filename, upload.Data, actor.UserID, actor.CompanyID, contentType)
	})
	if err != nil {
		return models.Image{}, s.storeError("upload", err)
	}

	fileID := result.(primitive.ObjectID)
	return models.Image{
		FileID:   fileID,
		Filename: filename,
		URL:      ImageURL(fileID),
	}, nil
}

func (s *imageService) Open(ctx context.Context, actor models.Actor, fileID primitive.ObjectID) (*repository.StoredImage, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.repo.Download(ctx, fileID)
	})
	if err != nil {
		return nil, s.storeError("download", err)
	}

	image := result.(*repository.StoredImage)
	if image.Company != actor.CompanyID {
		image.Body.Close()
		return nil, utils.NotFound("Image not found")
	}
	return image, nil
}

func (s *imageService) Delete(ctx context.Context, fileID primitive.ObjectID) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.repo.Delete(ctx, fileID)
	})
	if err != nil {
		return s.storeError("delete", err)
	}
	return nil
}

func (s *imageService) storeError(operation string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NotFound("Image not found")
	}

	metrics.ImageStoreErrors.WithLabelValues(operation).Inc()
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return utils.NewAppError(http.StatusServiceUnavailable, "Image store temporarily unavailable")
	}
	return fmt.Errorf("image %s failed: %w", operation, err)
}
