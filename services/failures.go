package services

import (
	"retailtasks/logging"
	"retailtasks/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// logAnalyticsFailure records an analytics side effect that failed. The
// primary operation carries on.
func logAnalyticsFailure(event string, subject primitive.ObjectID, err error) {
	metrics.AnalyticsUpdateFailures.WithLabelValues(event).Inc()
	logging.Logger.WithField("subject", subject.Hex()).
		Errorf("Event ID: ANALYTICS_UPDATE_FAILED, Description: Analytics update for %s failed: %v", event, err)
}
