package schema

const (
	MethodInitialize      = "initialize"
	MethodPing            = "ping"
	MethodResourcesList   = "resources/list"
	MethodResourcesRead   = "resources/read"
	MethodPromptsList     = "prompts/list"
	MethodPromptsGet      = "prompts/get"
	MethodToolsList       = "tools/list"
	MethodToolsCall       = "tools/call"
	MethodComplete        = "completion/complete"
	MethodLoggingSetLevel = "logging/setLevel"

	MethodNotificationInitialized         = "notifications/initialized"
	MethodNotificationCancel              = "notifications/cancelled"
	MethodNotificationProgress            = "notifications/progress"
	MethodNotificationMessage             = "notifications/message"
	MethodNotificationResourceUpdated     = "notifications/resources/updated"
	MethodNotificationResourceListChanged = "notifications/resources/list_changed"
	MethodNotificationToolListChanged     = "notifications/tools/list_changed"
	MethodNotificationPromptListChanged   = "notifications/prompts/list_changed"
	// MethodNotificationStderr is emitted by the proxy for stdio servers.
	MethodNotificationStderr = "notifications/stderr"
)
