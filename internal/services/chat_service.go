package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

const (
	maxChatHistory        = 50
	maxChatQuestionLength = 2000
)

var (
	ErrEmptyQuestion   = errors.New("empty question")
	ErrQuestionTooLong = errors.New("question too long")
	ErrChatUnavailable = errors.New("chat unavailable")
)

type ChatGateway interface {
	AskAI(ctx context.Context, userID string, question string, history []models.ChatMessage) (string, error)
}

type ChatService struct {
	gateway   ChatGateway
	mu        sync.Mutex
	histories map[string][]models.ChatMessage
}

func NewChatService(gateway ChatGateway) *ChatService {
	return &ChatService{
		gateway:   gateway,
		histories: make(map[string][]models.ChatMessage),
	}
}

func (service *ChatService) History(userID string) []models.ChatMessage {
	service.mu.Lock()
	defer service.mu.Unlock()
	return append([]models.ChatMessage{}, service.histories[userID]...)
}

// Ask sends question with the conversation so far. When the coach cannot
// answer, apology is recorded as the reply and ErrChatUnavailable returned.
func (service *ChatService) Ask(ctx context.Context, userID string, question string, apology string) (models.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.ChatMessage{}, ErrEmptyQuestion
	}
	if len([]rune(question)) > maxChatQuestionLength {
		return models.ChatMessage{}, ErrQuestionTooLong
	}

	history := service.History(userID)
	service.append(userID, models.ChatMessage{Role: models.ChatRoleUser, Content: question})

	answer, err := service.gateway.AskAI(ctx, userID, question, history)
	if err != nil {
		log.Printf("ask ai for user %s: %v", userID, err)
		reply := models.ChatMessage{Role: models.ChatRoleAssistant, Content: apology}
		service.append(userID, reply)
		return reply, errors.Join(ErrChatUnavailable, err)
	}

	reply := models.ChatMessage{Role: models.ChatRoleAssistant, Content: answer}
	service.append(userID, reply)
	return reply, nil
}

func (service *ChatService) AppendAssistant(userID string, content string) {
	service.append(userID, models.ChatMessage{Role: models.ChatRoleAssistant, Content: content})
}

// SeedAssistant starts an empty conversation with content.
func (service *ChatService) SeedAssistant(userID string, content string) {
	service.mu.Lock()
	defer service.mu.Unlock()
	if len(service.histories[userID]) > 0 {
		return
	}
	service.histories[userID] = []models.ChatMessage{{Role: models.ChatRoleAssistant, Content: content}}
}

func (service *ChatService) Reset(userID string) {
	service.mu.Lock()
	defer service.mu.Unlock()
	delete(service.histories, userID)
}

func (service *ChatService) append(userID string, message models.ChatMessage) {
	service.mu.Lock()
	defer service.mu.Unlock()

	history := append(service.histories[userID], message)
	if len(history) > maxChatHistory {
		history = append([]models.ChatMessage(nil), history[len(history)-maxChatHistory:]...)
	}
	service.histories[userID] = history
}
