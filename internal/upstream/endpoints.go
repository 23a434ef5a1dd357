package upstream

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

type photosResponse struct {
	Photos []string `json:"photos"`
}

type savePhotoRequest struct {
	UserID      string `json:"user_id"`
	Date        string `json:"date"`
	ImageBase64 string `json:"image_base64"`
}

type memoResponse struct {
	Memo string `json:"memo"`
}

type saveMemoRequest struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Memo   string `json:"memo"`
}

type uploadResponse struct {
	OCRNutrients []models.NutrientReading `json:"ocr_nutrients"`
}

type addNutrientsRequest struct {
	UserID    string                   `json:"user_id"`
	Nutrients []models.NutrientReading `json:"nutrients"`
}

type profileImageRequest struct {
	ProfileImage string `json:"profile_image"`
}

type askRequest struct {
	UserID   string               `json:"user_id"`
	Question string               `json:"question"`
	History  []models.ChatMessage `json:"history"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (client *Client) FetchStatistics(ctx context.Context, userID string) (models.DailyRecords, error) {
	records := models.DailyRecords{}
	if err := client.getJSON(ctx, "/statistics/"+url.PathEscape(userID), nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = models.DailyRecords{}
	}
	return records, nil
}

func (client *Client) FetchPhotos(ctx context.Context, userID string, date string) ([]string, error) {
	response := photosResponse{}
	query := url.Values{"user_id": {userID}, "date": {date}}
	if err := client.getJSON(ctx, "/meal-photo", query, &response); err != nil {
		return nil, err
	}
	if response.Photos == nil {
		return []string{}, nil
	}
	return response.Photos, nil
}

func (client *Client) SavePhoto(ctx context.Context, userID string, date string, image string) error {
	body := savePhotoRequest{UserID: userID, Date: date, ImageBase64: image}
	return client.sendJSON(ctx, http.MethodPost, "/meal-photo", body, nil)
}

func (client *Client) DeletePhoto(ctx context.Context, userID string, date string, index int) error {
	query := url.Values{"user_id": {userID}, "date": {date}, "index": {strconv.Itoa(index)}}
	request, err := http.NewRequestWithContext(ctx, http.MethodDelete, client.endpoint("/meal-photo", query), nil)
	if err != nil {
		return fmt.Errorf("build DELETE /meal-photo: %w", err)
	}
	return client.do(request, "/meal-photo", nil)
}

func (client *Client) FetchMemo(ctx context.Context, userID string, date string) (string, error) {
	response := memoResponse{}
	query := url.Values{"user_id": {userID}, "date": {date}}
	if err := client.getJSON(ctx, "/meal-memo", query, &response); err != nil {
		return "", err
	}
	return response.Memo, nil
}

func (client *Client) SaveMemo(ctx context.Context, userID string, date string, memo string) error {
	body := saveMemoRequest{UserID: userID, Date: date, Memo: memo}
	return client.sendJSON(ctx, http.MethodPost, "/meal-memo", body, nil)
}

// AnalyzeLabel posts the photo as multipart form data and returns the OCR
// nutrient candidates.
func (client *Client) AnalyzeLabel(ctx context.Context, userID string, image models.LabelImage) ([]models.NutrientReading, error) {
	var payload bytes.Buffer
	writer := multipart.NewWriter(&payload)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, labelFilename(image)))
	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}
	if err := writer.WriteField("user_id", userID); err != nil {
		return nil, fmt.Errorf("write user_id field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoint("/upload", nil), &payload)
	if err != nil {
		return nil, fmt.Errorf("build POST /upload: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Accept", "application/json")

	response := uploadResponse{}
	if err := client.do(request, "/upload", &response); err != nil {
		return nil, err
	}
	if response.OCRNutrients == nil {
		return []models.NutrientReading{}, nil
	}
	return response.OCRNutrients, nil
}

func (client *Client) AddNutrients(ctx context.Context, userID string, nutrients []models.NutrientReading) (models.IntakeResult, error) {
	result := models.IntakeResult{}
	body := addNutrientsRequest{UserID: userID, Nutrients: nutrients}
	if err := client.sendJSON(ctx, http.MethodPost, "/add-nutrients", body, &result); err != nil {
		return models.IntakeResult{}, err
	}
	return result, nil
}

func (client *Client) AskAI(ctx context.Context, userID string, question string, history []models.ChatMessage) (string, error) {
	if history == nil {
		history = []models.ChatMessage{}
	}
	response := askResponse{}
	body := askRequest{UserID: userID, Question: question, History: history}
	if err := client.sendJSON(ctx, http.MethodPost, "/ask-ai", body, &response); err != nil {
		return "", err
	}
	return response.Answer, nil
}

func (client *Client) FetchUserStatus(ctx context.Context, userID string) (models.IntakeResult, error) {
	result := models.IntakeResult{}
	if err := client.getJSON(ctx, "/user-status/"+url.PathEscape(userID), nil, &result); err != nil {
		return models.IntakeResult{}, err
	}
	return result, nil
}

// UpdateProfile sends only the changed fields to PUT /users/{id}.
func (client *Client) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) error {
	return client.sendJSON(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), update, nil)
}

func (client *Client) UpdateProfileImage(ctx context.Context, userID string, image string) error {
	body := profileImageRequest{ProfileImage: image}
	return client.sendJSON(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/profile-image", body, nil)
}

func labelFilename(image models.LabelImage) string {
	if image.Filename != "" {
		return image.Filename
	}
	return "label.jpg"
}
