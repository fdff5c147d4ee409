package config

const (
	defaultDataDir      = "~/.local/share/towlot/data"
	defaultLogDir       = "~/.local/share/towlot/logs"
	defaultDocumentsDir = "~/.local/share/towlot/documents"

	defaultNoticeAfterDays         = 7
	defaultNoticeEscalateDays      = 8
	defaultNoticeResponseDays      = 7
	defaultAuctionPickupWindowDays = 3
	defaultScrapPickupWindowDays   = 1
	defaultScrapHoldDays           = 10
	defaultAdLeadDays              = 5
	defaultDocumentLeadDays        = 3
	defaultAuctionWeekday          = "wednesday"
	defaultPublicationWeekday      = "saturday"
	defaultDispositionRoute        = "auction"

	defaultTickInterval              = 60
	defaultWorkflowCheckInterval     = 3600
	defaultStatusRefreshInterval     = 21600
	defaultNotificationCheckInterval = 1800

	defaultNotifyRequestTimeout = 10
	defaultNotifyRetentionDays  = 90
	defaultDrainBatchSize       = 50

	defaultHearingWeekday = "tuesday"
	defaultHearingHour    = 9

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			DocumentsDir: defaultDocumentsDir,
		},
		Lifecycle: Lifecycle{
			NoticeAfterDays:         defaultNoticeAfterDays,
			NoticeEscalateDays:      defaultNoticeEscalateDays,
			NoticeResponseDays:      defaultNoticeResponseDays,
			AuctionPickupWindowDays: defaultAuctionPickupWindowDays,
			ScrapPickupWindowDays:   defaultScrapPickupWindowDays,
			ScrapHoldDays:           defaultScrapHoldDays,
			AdLeadDays:              defaultAdLeadDays,
			DocumentLeadDays:        defaultDocumentLeadDays,
			AuctionWeekday:          defaultAuctionWeekday,
			PublicationWeekday:      defaultPublicationWeekday,
			DefaultDispositionRoute: defaultDispositionRoute,
		},
		Workflow: Workflow{
			TickInterval:              defaultTickInterval,
			WorkflowCheckInterval:     defaultWorkflowCheckInterval,
			StatusRefreshInterval:     defaultStatusRefreshInterval,
			NotificationCheckInterval: defaultNotificationCheckInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RetentionDays:  defaultNotifyRetentionDays,
			DrainBatchSize: defaultDrainBatchSize,
		},
		Documents: Documents{
			Enabled: true,
			Agency:  "Municipal Impound",
		},
		Hearings: Hearings{
			DefaultWeekday: defaultHearingWeekday,
			DefaultHour:    defaultHearingHour,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
