package mail

type WorkspaceReadyData struct {
	FirstName    string
	BusinessName string
	PlanName     string
	AccountCount int
	Accounts     []string
	DashboardURL string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}
