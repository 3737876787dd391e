package service

import (
	"encoding/json"

	"likesio/internal/models"
	"likesio/internal/repository"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

// NotifyOrderProcessing records an in-app notification for registered customers. Guest
// orders have no user row, so callers pass the order's UserID only when present.
func (s *NotificationService) NotifyOrderProcessing(userID uint, orderID uint) error {
	return s.Notify(userID, "ORDER_PROCESSING", "Payment received",
		"Your payment was confirmed and delivery has started.",
		map[string]interface{}{"order_id": orderID})
}

func (s *NotificationService) NotifyOrderFailed(userID uint, orderID uint) error {
	return s.Notify(userID, "ORDER_FAILED", "Payment failed",
		"Your payment did not go through. No charge was applied.",
		map[string]interface{}{"order_id": orderID})
}
