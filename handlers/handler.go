package handlers

import (
	"net/http"
	"time"

	middleware "retailtasks/middlewares"
	"retailtasks/models"
	"retailtasks/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	requestTimeout = 10 * time.Second
	uploadTimeout  = 30 * time.Second
)

// currentActor returns the authenticated caller or writes a 401.
func currentActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		utils.HandleMessageResponse(w, "Authentication required", http.StatusUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}

// pathObjectID parses the named path value or writes a 400.
func pathObjectID(w http.ResponseWriter, r *http.Request, name, label string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(r.PathValue(name))
	if err != nil {
		utils.HandleMessageResponse(w, "Invalid "+label+" ID format", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}
