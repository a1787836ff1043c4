package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"retailtasks/logging"
	"retailtasks/models"
	service "retailtasks/services"
	"retailtasks/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxImageSize   = 10 << 20
	maxUploadBytes = 64 << 20
	imagesField    = "images"
)

type TaskHandler struct {
	service  service.TaskService
	comments service.CommentService
}

func NewTaskHandler(service service.TaskService, comments service.CommentService) *TaskHandler {
	return &TaskHandler{
		service:  service,
		comments: comments,
	}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var input models.TaskInput
	if err := utils.DecodeAndValidate(w, r, &input); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	task, err := h.service.CreateTask(ctx, actor, &input)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Task created successfully", task, http.StatusCreated)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	filter, err := parseTaskFilter(r, actor)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	tasks, err := h.service.ListTasks(ctx, actor, filter)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Tasks retrieved successfully", tasks, http.StatusOK)
}

// parseTaskFilter reads ?completed=, ?assignedTo= and ?department=.
// assignedTo=me selects the caller's own tasks.
func parseTaskFilter(r *http.Request, actor models.Actor) (models.TaskFilter, error) {
	var filter models.TaskFilter
	q := r.URL.Query()

	if raw := q.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, utils.BadRequest("Invalid completed filter")
		}
		filter.Completed = &completed
	}

	switch raw := q.Get("assignedTo"); raw {
	case "":
	case "me":
		me := actor.UserID
		filter.AssignedTo = &me
	default:
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return filter, utils.BadRequest("Invalid assignedTo filter")
		}
		filter.AssignedTo = &id
	}

	if raw := q.Get("department"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return filter, utils.BadRequest("Invalid department filter")
		}
		filter.Department = &id
	}

	return filter, nil
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "task")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	task, err := h.service.GetTask(ctx, actor, id)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Task retrieved successfully", task, http.StatusOK)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "task")
	if !ok {
		return
	}

	var input models.TaskInput
	if err := utils.DecodeAndValidate(w, r, &input); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	task, err := h.service.UpdateTask(ctx, actor, id, &input)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Task updated successfully", task, http.StatusOK)
}

func (h *TaskHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "task")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	task, err := h.service.ToggleComplete(ctx, actor, id)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	message := "Task reopened"
	if task.Completed {
		message = "Task completed"
	}
	utils.HandleDataResponse(w, message, task, http.StatusOK)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "task")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	if err := h.service.DeleteTask(ctx, actor, id); err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleMessageResponse(w, "Task deleted successfully", http.StatusOK)
}

func (h *TaskHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "task")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	history, err := h.service.History(ctx, actor, id)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Task history retrieved successfully", history, http.StatusOK)
}

func (h *TaskHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "task")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		utils.HandleMessageResponse(w, "Unable to parse form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[imagesField]
	if len(headers) == 0 {
		utils.HandleMessageResponse(w, "No images provided", http.StatusBadRequest)
		return
	}

	uploads := make([]service.ImageUpload, 0, len(headers))
	for _, header := range headers {
		if header.Size > maxImageSize {
			utils.HandleMessageResponse(w, fmt.Sprintf("Image %s exceeds the 10MB limit", header.Filename), http.StatusBadRequest)
			return
		}
		file, err := header.Open()
		if err != nil {
			utils.HandleMessageResponse(w, "Unable to read uploaded image", http.StatusBadRequest)
			return
		}
		defer closeUpload(file)

		uploads = append(uploads, service.ImageUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        file,
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	task, err := h.service.AddImages(ctx, actor, id, uploads)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Images uploaded successfully", task, http.StatusOK)
}

func closeUpload(file multipart.File) {
	if err := file.Close(); err != nil {
		logging.Logger.Warnf("Event ID: CLOSE_UPLOAD_FAILED, Description: %v", err)
	}
}

func (h *TaskHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "task")
	if !ok {
		return
	}
	fileID, ok := pathObjectID(w, r, "fileId", "file")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	task, err := h.service.RemoveImage(ctx, actor, id, fileID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Image deleted successfully", task, http.StatusOK)
}

func (h *TaskHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "task")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	comments, err := h.comments.ListComments(ctx, actor, id)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Comments retrieved successfully", comments, http.StatusOK)
}

func (h *TaskHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathObjectID(w, r, "id", "task")
	if !ok {
		return
	}

	var input models.CommentInput
	if err := utils.DecodeAndValidate(w, r, &input); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	comment, err := h.comments.PostComment(ctx, actor, id, input.Content)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	utils.HandleDataResponse(w, "Comment posted successfully", comment, http.StatusCreated)
}

type ImageHandler struct {
	service service.ImageService
}

func NewImageHandler(service service.ImageService) *ImageHandler {
	return &ImageHandler{
		service: service,
	}
}

func (h *ImageHandler) DownloadImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	fileID, ok := pathObjectID(w, r, "fileId", "file")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	image, err := h.service.Open(ctx, actor, fileID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	defer image.Body.Close()

	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", image.Filename))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(image.Length, 10))

	if _, err := io.Copy(w, image.Body); err != nil {
		logging.Logger.Errorf("Event ID: IMAGE_STREAM_FAILED, Description: file %s: %v", fileID.Hex(), err)
	}
}
