package models

type News struct {
	ID      int    `json:"id"`
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Author  string `json:"author" validate:"required"`
	Date    string `json:"date"`
}

type Message struct {
	ID      int    `json:"id"`
	From    string `json:"from"`
	FromID  int    `json:"fromId"`
	To      string `json:"to"`
	ToID    int    `json:"toId" validate:"required"`
	ChildID int    `json:"childId"`
	Subject string `json:"subject" validate:"required"`
	Content string `json:"content" validate:"required"`
	Date    string `json:"date"`
	Read    bool   `json:"read"`
}
