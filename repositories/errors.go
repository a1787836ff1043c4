package repository

import (
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Names of unique indexes whose violations services translate into
// client errors.
const (
	CompanyNameIndex      = "uniq_company_name"
	CompanyCodeIndex      = "uniq_company_code"
	CompanyLocationIndex  = "uniq_company_location"
	UsernameIndex         = "uniq_user_username"
	WorkEmailIndex        = "uniq_user_work_email"
	DepartmentNameIndex   = "uniq_department_name_company"
	ScheduleWeekIndex     = "uniq_schedule_employee_week"
	ScheduleUniqueIDIndex = "uniq_schedule_unique_id"
	AnalyticsDayIndex     = "uniq_analytics_company_date"
)

// IsDuplicateIndex reports whether err is a duplicate key error raised by index.
func IsDuplicateIndex(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), index)
}
