package utils

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Image storage with a provider switch: "s3" (AWS), "r2" (any S3-compatible
// endpoint), "local" (uploads/ dir, served statically). Every remote failure
// falls back to local so a broken bucket never breaks an analysis.

var (
	storageProvider string
	storageClient   *s3.Client
	storageBucket   string
	publicBase      string
)

func InitStorage() {
	storageProvider = strings.ToLower(os.Getenv("STORAGE_PROVIDER"))
	if storageProvider == "" {
		storageProvider = "local"
	}
	if err := os.MkdirAll(LocalUploadDir(), 0o755); err != nil {
		log.Fatalf("create upload dir: %v", err)
	}

	switch storageProvider {
	case "local":
		return
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(os.Getenv("S3_REGION")))
		if err != nil {
			log.Printf("storage: AWS config failed (%v), falling back to local", err)
			storageProvider = "local"
			return
		}
		storageClient = s3.NewFromConfig(cfg)
		storageBucket = os.Getenv("S3_BUCKET")
		publicBase = strings.TrimRight(os.Getenv("S3_PUBLIC_BASE"), "/")
	case "r2":
		endpoint := os.Getenv("R2_ENDPOINT")
		key := os.Getenv("R2_ACCESS_KEY")
		secret := os.Getenv("R2_SECRET_KEY")
		storageBucket = os.Getenv("R2_BUCKET")
		if endpoint == "" || key == "" || secret == "" || storageBucket == "" {
			log.Println("storage: incomplete R2 config, falling back to local")
			storageProvider = "local"
			return
		}
		cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion("auto"),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(key, secret, "")))
		if err != nil {
			log.Printf("storage: R2 config failed (%v), falling back to local", err)
			storageProvider = "local"
			return
		}
		storageClient = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
		publicBase = strings.TrimRight(os.Getenv("R2_PUBLIC_BASE"), "/")
	default:
		log.Printf("storage: unknown provider %q, falling back to local", storageProvider)
		storageProvider = "local"
	}
}

func LocalUploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

// StoreImage writes the image to the active provider and returns a URL the
// frontend can load.
func StoreImage(ctx context.Context, raw []byte, originalName string) (string, error) {
	name := generateFilename(originalName)
	if storageProvider == "local" || storageClient == nil {
		return storeLocal(raw, name)
	}

	key := "uploads/" + name
	_, err := storageClient.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(storageBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String(GuessImageContentType(originalName)),
	})
	if err != nil {
		log.Printf("storage: %s upload failed (%v), storing locally", storageProvider, err)
		return storeLocal(raw, name)
	}

	if publicBase != "" {
		return publicBase + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", storageBucket, key), nil
}

func storeLocal(raw []byte, name string) (string, error) {
	path := filepath.Join(LocalUploadDir(), name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("store image locally: %w", err)
	}
	base := strings.TrimRight(os.Getenv("BASE_URL"), "/")
	return base + "/uploads/" + name, nil
}

func generateFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.New().String() + ext
}

func GuessImageContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
