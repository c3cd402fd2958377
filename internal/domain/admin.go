package domain

// TelegramAdmin is one visible admin of a Telegram group.
type TelegramAdmin struct {
	Username  string
	IsCreator bool
}

// AdminResult is the outcome of admin extraction for a Telegram group.
// AdminsHidden means the upstream configuration prevented retrieval of
// the admin list; it is distinct from "no admins found".
type AdminResult struct {
	Admins            []TelegramAdmin
	AdminsHidden      bool
	GroupTitle        string
	GroupDescription  string
	PinnedMessageText string
}
