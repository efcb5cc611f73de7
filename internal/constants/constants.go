package constants

const (
	// ContextKeyUserID is used both as the session key and the gin context key.
	ContextKeyUserID = "user_id"
	// ContextKeyRequestID holds the per-request id set by middleware.RequestID.
	ContextKeyRequestID = "request_id"
	// ContextKeyTeam and ContextKeyTeamMember are set by middleware.RequireTeamAccess.
	ContextKeyTeam       = "team"
	ContextKeyTeamMember = "team_member"
	// ContextKeyTask is set by middleware.RequireTaskAccess.
	ContextKeyTask = "task"

	SessionCookieName = "checklist_session"
	RequestIDHeader   = "X-Request-ID"

	MinPasswordLength     = 8
	MinTeamPasswordLength = 4

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	MaxAIGeneratedTasks      = 20
	MaxParticipationDays     = 365
	DefaultParticipationDays = 30

	CheckInDayLayout = "2006-01-02"
)
