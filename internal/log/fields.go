package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldOwnerID    = "owner_id"
	FieldBudgetID   = "budget_id"
	FieldAlertID    = "alert_id"
	FieldCategoryID = "category_id"
	FieldAmount     = "amount"
	FieldCount      = "count"
	FieldUserID     = "user_id"
	FieldEmail      = "email"
	FieldPercentage = "percentage_used"
	FieldKind       = "alert_kind"
	FieldStartDate  = "start_date"
	FieldEndDate    = "end_date"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldClientKey  = "client_key"
)

// Standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBudget    = "budget"
	ComponentAnalytics = "analytics"
	ComponentAlert     = "alert"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentScheduler = "scheduler"
	ComponentNotify    = "notify"
	ComponentRates     = "rates"
	ComponentRateLimit = "rate_limit"
)
