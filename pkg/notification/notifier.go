package notification

// NotificationData carries a single outbound notification.
type NotificationData struct {
	To   string            // Recipient identifier (e.g., email address, phone number)
	Body string            // Optional pre-rendered content; templates take precedence
	Data map[string]string // Template data (e.g., the one-time passcode)
}

// NoticeTemplate holds the rendered-from templates for one notice on one system.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
