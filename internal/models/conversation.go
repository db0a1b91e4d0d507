package models

import (
	"time"

	"gorm.io/datatypes"
)

// NoConversationID is the id the chat client sends from its landing page,
// before any conversation exists.
const NoConversationID = "career-guidance-home"

type Conversation struct {
	ID        string    `gorm:"column:id;type:text;primaryKey" bson:"_id" json:"id"`
	UserID    string    `gorm:"column:user_id;type:text;not null;index:idx_conversations_user_created,priority:1" bson:"user_id" json:"userId"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index:idx_conversations_user_created,priority:2" bson:"created_at" json:"createdAt"`

	// ordered by CreatedAt ascending when loaded
	History []ConversationHistory `gorm:"foreignKey:ConversationID;references:ID;constraint:OnDelete:CASCADE" bson:"-" json:"history,omitempty"`
}

func (Conversation) TableName() string { return "conversations" }

// ConversationHistory is one question/answer turn. Context and FollowUpQuestion
// capture the state at the time the turn was produced.
type ConversationHistory struct {
	ID               string                         `gorm:"column:id;type:uuid;primaryKey" bson:"_id" json:"id"`
	ConversationID   string                         `gorm:"column:conversation_id;type:text;not null;index:idx_history_conversation_created,priority:1" bson:"conversation_id" json:"conversationId"`
	Question         string                         `gorm:"column:question;type:text" bson:"question" json:"question"`
	Answer           string                         `gorm:"column:answer;type:text" bson:"answer" json:"answer"`
	Context          string                         `gorm:"column:context;type:text" bson:"context" json:"context"`
	FollowUpQuestion string                         `gorm:"column:follow_up_question;type:text" bson:"follow_up_question" json:"followUpQuestion"`
	References       datatypes.JSONSlice[Reference] `gorm:"column:refs;type:jsonb" bson:"references" json:"references"`
	CreatedAt        time.Time                      `gorm:"column:created_at;type:timestamptz;index:idx_history_conversation_created,priority:2" bson:"created_at" json:"createdAt"`
}

func (ConversationHistory) TableName() string { return "conversation_histories" }

// Reference is a numbered preview of a retrieved chunk, in rank order.
type Reference struct {
	ReferenceNumber int    `bson:"reference_number" json:"reference_number"`
	Preview         string `bson:"preview" json:"preview"`
}
