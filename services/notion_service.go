package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// NotionService writes one analyzed meal into the user's Notion food-log
// database. The property names match the database the frontend ships with.
type NotionService struct {
	apiKey     string
	databaseID string
	client     *http.Client
}

func NewNotionService() *NotionService {
	return &NotionService{
		apiKey:     os.Getenv("NOTION_API_KEY"),
		databaseID: os.Getenv("NOTION_DATABASE_ID"),
		client:     &http.Client{Timeout: 20 * time.Second},
	}
}

// Configured reports whether both Notion credentials are present.
func (s *NotionService) Configured() bool {
	return s.apiKey != "" && s.databaseID != ""
}

type FoodLogEntry struct {
	Name     string  `json:"name"`
	Grams    float64 `json:"grams"`
	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbG    float64 `json:"carb_g"`
}

type FoodLogRequest struct {
	Date     string         `json:"date" binding:"required"`
	Meal     string         `json:"meal" binding:"required"`
	Items    []FoodLogEntry `json:"items"`
	Totals   MacroTotals    `json:"totals"`
	ImageURL string         `json:"image_url"`
	Notes    string         `json:"notes"`
}

// CreateFoodLog creates the Notion page and returns its id.
func (s *NotionService) CreateFoodLog(ctx context.Context, req FoodLogRequest) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("notion not configured")
	}

	lines := ""
	for _, it := range req.Items {
		lines += fmt.Sprintf("- %s %.0fg（%.1fkcal / P%.1f/F%.1f/C%.1f）\n",
			it.Name, it.Grams, it.Kcal, it.ProteinG, it.FatG, it.CarbG)
	}

	meal := req.Meal
	if meal == "" {
		meal = "未分類"
	}

	properties := map[string]any{
		"日期":     map[string]any{"date": map[string]string{"start": req.Date}},
		"餐別":     map[string]any{"select": map[string]string{"name": meal}},
		"熱量估算":   map[string]any{"number": req.Totals.Kcal},
		"蛋白質(g)": map[string]any{"number": req.Totals.ProteinG},
		"脂肪(g)":  map[string]any{"number": req.Totals.FatG},
		"碳水(g)":  map[string]any{"number": req.Totals.CarbG},
		"食物清單":   richText(truncate(lines, 1900)),
		"AI建議":   richText(truncate(req.Notes, 1900)),
	}
	if req.ImageURL != "" {
		properties["圖片連結"] = map[string]any{"url": req.ImageURL}
	}

	body := map[string]any{
		"parent":     map[string]string{"database_id": s.databaseID},
		"properties": properties,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.notion.com/v1/pages", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Notion-Version", "2022-06-28")

	res, err := s.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("notion: status %d: %s", res.StatusCode, truncate(string(raw), 200))
	}

	var page struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return "", err
	}
	return page.ID, nil
}

func richText(content string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{
			{"text": map[string]string{"content": content}},
		},
	}
}
