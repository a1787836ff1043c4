package database

import (
	"context"
	"fmt"
	"time"

	"retailtasks/logging"
	repository "retailtasks/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collectionIndexes maps each collection to the indexes the repositories rely
// on. Unique index names are matched by the repositories to tell duplicate
// key errors apart.
func collectionIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		"companies": {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetName(repository.CompanyNameIndex).SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetName(repository.CompanyCodeIndex).SetUnique(true),
			},
			// Same storefront: address plus store number
			{
				Keys: bson.D{
					{Key: "address.street", Value: 1},
					{Key: "address.city", Value: 1},
					{Key: "address.state", Value: 1},
					{Key: "address.zipCode", Value: 1},
					{Key: "storeNumber", Value: 1},
				},
				Options: options.Index().SetName(repository.CompanyLocationIndex).SetUnique(true),
			},
		},

		"users": {
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetName(repository.UsernameIndex).SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "workEmail", Value: 1}},
				Options: options.Index().SetName(repository.WorkEmailIndex).SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "company", Value: 1}},
				Options: options.Index().SetName("idx_user_company"),
			},
		},

		"departments": {
			{
				Keys:    bson.D{{Key: "name", Value: 1}, {Key: "company", Value: 1}},
				Options: options.Index().SetName(repository.DepartmentNameIndex).SetUnique(true),
			},
		},

		// LIST + FILTER: company scoped task lists, overdue sweep
		"tasks": {
			{
				Keys:    bson.D{{Key: "company", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_task_company_created"),
			},
			{
				Keys:    bson.D{{Key: "company", Value: 1}, {Key: "assignedTo", Value: 1}},
				Options: options.Index().SetName("idx_task_company_assignee"),
			},
			{
				Keys:    bson.D{{Key: "completed", Value: 1}, {Key: "isOverdue", Value: 1}, {Key: "dueDate", Value: 1}},
				Options: options.Index().SetName("idx_task_overdue_sweep"),
			},
		},

		"histories": {
			{
				Keys:    bson.D{{Key: "task", Value: 1}, {Key: "timestamp", Value: 1}},
				Options: options.Index().SetName("idx_history_task_timestamp"),
			},
		},

		"comments": {
			{
				Keys:    bson.D{{Key: "task", Value: 1}, {Key: "createdAt", Value: 1}},
				Options: options.Index().SetName("idx_comment_task_created"),
			},
		},

		"notifications": {
			{
				Keys:    bson.D{{Key: "user", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_notification_user_read"),
			},
		},

		"messages": {
			{
				Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_message_recipient_read"),
			},
			{
				Keys:    bson.D{{Key: "sender", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_message_sender"),
			},
			{
				Keys:    bson.D{{Key: "threadId", Value: 1}, {Key: "createdAt", Value: 1}},
				Options: options.Index().SetName("idx_message_thread"),
			},
		},

		"schedules": {
			{
				Keys: bson.D{
					{Key: "company", Value: 1},
					{Key: "employeeName", Value: 1},
					{Key: "weekStartDate", Value: 1},
				},
				Options: options.Index().SetName(repository.ScheduleWeekIndex).SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "uniqueId", Value: 1}},
				Options: options.Index().SetName(repository.ScheduleUniqueIDIndex).SetUnique(true),
			},
		},

		"changerequests": {
			{
				Keys:    bson.D{{Key: "company", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_request_company_created"),
			},
		},

		// One analytics document per company per day
		"analytics": {
			{
				Keys:    bson.D{{Key: "company", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetName(repository.AnalyticsDayIndex).SetUnique(true),
			},
		},
	}
}

// CreateIndexes builds every collection's indexes. It keeps going after a
// failure and reports the collections that failed.
func CreateIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var failed []string
	for name, indexes := range collectionIndexes() {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			logging.Logger.Errorf("Event ID: INDEX_CREATE_FAILED, Description: collection %s: %v", name, err)
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to create indexes for %v", failed)
	}

	logging.Logger.Info("Event ID: INDEXES_READY, Description: database indexes created")
	return nil
}
