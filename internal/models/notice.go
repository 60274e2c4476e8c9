package models

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

type Notice struct {
	Kind        NoticeKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

func SuccessNotice(description string) Notice {
	return Notice{Kind: NoticeSuccess, Title: "Success", Description: description}
}

func ErrorNotice(description string) Notice {
	return Notice{Kind: NoticeError, Title: "Error", Description: description}
}
