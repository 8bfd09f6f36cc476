package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rektypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// VisionProvider turns a meal photo into the raw detected-item list. The
// calculator treats that list as hostile input either way.
type VisionProvider interface {
	AnalyzeImage(ctx context.Context, image []byte, contentType string) ([]DetectedItem, error)
}

// NewVisionProvider picks the backend from VISION_PROVIDER
// ("openai" default, or "rekognition").
func NewVisionProvider() (VisionProvider, error) {
	switch strings.ToLower(os.Getenv("VISION_PROVIDER")) {
	case "", "openai":
		return NewOpenAIVisionService(), nil
	case "rekognition":
		return NewRekognitionVisionService()
	default:
		return nil, fmt.Errorf("unknown VISION_PROVIDER %q", os.Getenv("VISION_PROVIDER"))
	}
}

// OpenAIVisionService asks a chat-completions vision model for the item
// list directly, as JSON.
type OpenAIVisionService struct {
	apiKey string
	model  string
	client *http.Client
}

func NewOpenAIVisionService() *OpenAIVisionService {
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIVisionService{
		apiKey: os.Getenv("OPENAI_API_KEY"),
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

const visionSystemPrompt = "你是營養助理。從餐點照片中列出主要食材及估計重量(g)，用 JSON 陣列回傳。"
const visionUserPrompt = "請只回傳 JSON 陣列；每項提供 name、canonical、weight_g、is_garnish。"

func (s *OpenAIVisionService) AnalyzeImage(ctx context.Context, image []byte, contentType string) ([]DetectedItem, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image))
	body := map[string]any{
		"model":       s.model,
		"temperature": 0.2,
		"messages": []map[string]any{
			{"role": "system", "content": visionSystemPrompt},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": visionUserPrompt},
				{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
			}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.openai.com/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai vision: status %d: %s", res.StatusCode, truncate(string(raw), 200))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("openai vision: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai vision: empty choices")
	}

	return ParseVisionItems(parsed.Choices[0].Message.Content), nil
}

var jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// ParseVisionItems extracts detected items from a model reply. Tried in
// order: a bare JSON array, an {"items": [...]} object, the first bracketed
// slice of the text. Anything unparseable yields an empty list; a mute
// model is a partial result, not a failure.
func ParseVisionItems(text string) []DetectedItem {
	if arr := decodeItemArray([]byte(text)); arr != nil {
		return arr
	}

	var wrapper struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err == nil && wrapper.Items != nil {
		if arr := decodeItemArray(wrapper.Items); arr != nil {
			return arr
		}
	}

	if m := jsonArrayPattern.FindString(text); m != "" {
		if arr := decodeItemArray([]byte(m)); arr != nil {
			return arr
		}
	}
	return []DetectedItem{}
}

// decodeItemArray is deliberately loose: every field is coerced per entry so
// one malformed element cannot sink the rest.
func decodeItemArray(raw []byte) []DetectedItem {
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	items := make([]DetectedItem, 0, len(entries))
	for _, e := range entries {
		name := coerceString(e["name"])
		canonical := coerceString(e["canonical"])
		if canonical == "" {
			canonical = name
		}
		items = append(items, DetectedItem{
			Name:      name,
			Canonical: canonical,
			WeightG:   coerceFloat(e["weight_g"]),
			IsGarnish: coerceBool(e["is_garnish"]),
		})
	}
	return items
}

func coerceString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// RekognitionVisionService is the degraded-mode provider: label detection
// only, no weights, so every label gets a flat 100 g estimate.
type RekognitionVisionService struct {
	client *rekognition.Client
}

func NewRekognitionVisionService() (*RekognitionVisionService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, err
	}
	return &RekognitionVisionService{client: rekognition.NewFromConfig(cfg)}, nil
}

func (s *RekognitionVisionService) AnalyzeImage(ctx context.Context, image []byte, contentType string) ([]DetectedItem, error) {
	out, err := s.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &rektypes.Image{Bytes: image},
		MaxLabels:     aws.Int32(5),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, err
	}

	items := make([]DetectedItem, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Name == nil {
			continue
		}
		label := strings.ToLower(*l.Name)
		items = append(items, DetectedItem{
			Name:      label,
			Canonical: label,
			WeightG:   100,
		})
	}
	return items, nil
}
