// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"movilia/internal/imaging"
	"movilia/internal/middleware"
	"movilia/internal/models"
	"movilia/internal/render"
)

const (
	// maxUploadSize is the maximum allowed file upload size (50 MB).
	maxUploadSize = 50 << 20

	// presignExpiry is how long a presigned URL for private files is valid.
	presignExpiry = 1 * time.Hour
)

// allowedMediaTypes defines MIME types accepted for upload.
var allowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
}

// variantTypes are image types that go through the WebP variant pipeline.
// GIF is excluded to preserve animation; SVG is vector.
var variantTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// officeExtensions maps zip-container extensions to their real MIME type,
// since sniffing only sees the zip envelope.
var officeExtensions = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// uploadOptions controls where an uploaded file lands and what it
// attaches to. An empty bucket honors the form's private checkbox.
type uploadOptions struct {
	imagesOnly     bool
	bucket         string // "public", "private" or ""
	attachableType string
	attachableID   *uuid.UUID
}

// uploadError carries a message safe to show back to the user.
type uploadError struct {
	msg    string
	status int
}

func (e *uploadError) Error() string { return e.msg }

// MediaLibrary renders the media library page.
func (a *Admin) MediaLibrary(w http.ResponseWriter, r *http.Request) {
	a.renderMediaLibrary(w, r, "")
}

func (a *Admin) renderMediaLibrary(w http.ResponseWriter, r *http.Request, errMsg string) {
	if a.storageClient == nil && errMsg == "" {
		errMsg = "El almacenamiento de objetos no está configurado."
	}

	var items []models.Media
	if a.storageClient != nil {
		var err error
		items, err = a.mediaStore.List(100, 0)
		if err != nil {
			slog.Error("list media failed", "error", err)
		}
	}

	a.renderer.Page(w, r, "media_library", &render.PageData{
		Title:   "Biblioteca de medios",
		Section: "medios",
		Data: map[string]any{
			"Media":     items,
			"PublicURL": a.publicBaseURL(),
			"Error":     errMsg,
		},
	})
}

// MediaUpload stores a multipart upload in object storage and re-renders
// the library.
func (a *Admin) MediaUpload(w http.ResponseWriter, r *http.Request) {
	media, ue := a.processUpload(r, uploadOptions{})
	if ue != nil {
		a.renderMediaLibrary(w, r, ue.msg)
		return
	}

	a.record(r, "created", "media", media.ID, map[string]string{"filename": media.OriginalName})
	a.renderMediaLibrary(w, r, "")
}

// MediaDelete removes a media item and its variants from storage and the
// database, then re-renders the library.
func (a *Admin) MediaDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	variantKeys, err := a.mediaStore.DeleteVariantsFor(id)
	if err != nil {
		slog.Error("variant delete failed", "error", err, "media", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	deleted, err := a.mediaStore.Delete(id)
	if err != nil {
		slog.Error("media delete failed", "error", err, "media", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if deleted == nil {
		http.NotFound(w, r)
		return
	}

	// Storage cleanup is best effort; the row is already gone.
	if a.storageClient != nil {
		ctx := r.Context()
		if err := a.storageClient.Delete(ctx, deleted.Bucket, deleted.S3Key); err != nil {
			slog.Warn("s3 delete failed", "error", err, "key", deleted.S3Key)
		}
		if deleted.ThumbS3Key != nil {
			if err := a.storageClient.Delete(ctx, deleted.Bucket, *deleted.ThumbS3Key); err != nil {
				slog.Warn("s3 thumb delete failed", "error", err, "key", *deleted.ThumbS3Key)
			}
		}
		if len(variantKeys) > 0 {
			if err := a.storageClient.DeleteMany(ctx, deleted.Bucket, variantKeys); err != nil {
				slog.Warn("s3 variant delete failed", "error", err, "media", id)
			}
		}
	}

	a.record(r, "deleted", "media", id, map[string]string{"filename": deleted.OriginalName})
	a.renderMediaLibrary(w, r, "")
}

// MediaServe resolves a media item to a URL. Public files redirect to
// the direct URL; private files get a time-limited presigned URL.
func (a *Admin) MediaServe(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	media, err := a.mediaStore.FindByID(id)
	if err != nil {
		slog.Error("media lookup failed", "error", err, "media", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if media == nil || a.storageClient == nil {
		http.NotFound(w, r)
		return
	}

	if media.Bucket == a.storageClient.PublicBucket() {
		http.Redirect(w, r, a.storageClient.FileURL(media.S3Key), http.StatusFound)
		return
	}

	presigned, err := a.storageClient.PresignedURL(r.Context(), media.Bucket, media.S3Key, presignExpiry)
	if err != nil {
		slog.Error("presign failed", "error", err, "key", media.S3Key)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, presigned, http.StatusFound)
}

// processUpload reads the multipart "file" field, validates it, uploads
// the original plus WebP variants for raster images, and records the
// media row. All failures come back as user-displayable messages.
func (a *Admin) processUpload(r *http.Request, opts uploadOptions) (*models.Media, *uploadError) {
	if a.storageClient == nil {
		return nil, &uploadError{"El almacenamiento de objetos no está configurado.", http.StatusServiceUnavailable}
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, &uploadError{"El fichero supera el tamaño máximo de 50 MB.", http.StatusRequestEntityTooLarge}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &uploadError{"No se ha enviado ningún fichero.", http.StatusBadRequest}
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		return nil, &uploadError{"El fichero supera el tamaño máximo de 50 MB.", http.StatusRequestEntityTooLarge}
	}

	sniff := make([]byte, 512)
	n, err := file.Read(sniff)
	if err != nil && err != io.EOF {
		return nil, &uploadError{"No se ha podido leer el fichero.", http.StatusInternalServerError}
	}
	contentType := sniffContentType(sniff[:n], header.Filename)

	if !allowedMediaTypes[contentType] {
		return nil, &uploadError{fmt.Sprintf("El tipo de fichero %q no está permitido.", contentType), http.StatusBadRequest}
	}
	if opts.imagesOnly && !strings.HasPrefix(contentType, "image/") {
		return nil, &uploadError{"Solo se admiten imágenes.", http.StatusBadRequest}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, &uploadError{"No se ha podido procesar el fichero.", http.StatusInternalServerError}
	}
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, &uploadError{"No se ha podido leer el fichero.", http.StatusInternalServerError}
	}

	bucket := a.storageClient.PublicBucket()
	if opts.bucket == "private" || (opts.bucket == "" && r.FormValue("private") == "1") {
		bucket = a.storageClient.PrivateBucket()
	}
	altText := strings.TrimSpace(r.FormValue("alt_text"))

	now := time.Now()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = extensionFromType(contentType)
	}
	fileID := uuid.New().String()
	s3Key := fmt.Sprintf("media/%d/%02d/%s%s", now.Year(), now.Month(), fileID, ext)

	ctx := r.Context()
	if err := a.storageClient.Upload(ctx, bucket, s3Key, contentType, bytes.NewReader(fileBytes), int64(len(fileBytes))); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", s3Key)
		return nil, &uploadError{"No se ha podido subir el fichero.", http.StatusInternalServerError}
	}

	sess := middleware.SessionFromCtx(r.Context())
	media := &models.Media{
		Filename:       fileID + ext,
		OriginalName:   header.Filename,
		ContentType:    contentType,
		SizeBytes:      int64(len(fileBytes)),
		Bucket:         bucket,
		S3Key:          s3Key,
		UploaderID:     sess.UserID,
		AttachableID:   opts.attachableID,
	}
	if altText != "" {
		media.AltText = &altText
	}
	if opts.attachableType != "" {
		media.AttachableType = &opts.attachableType
	}

	created, err := a.mediaStore.Create(media)
	if err != nil {
		slog.Error("media insert failed", "error", err, "key", s3Key)
		return nil, &uploadError{"No se han podido guardar los metadatos.", http.StatusInternalServerError}
	}

	if variantTypes[contentType] {
		a.generateVariants(r, created, fileBytes, bucket, fileID, now)
	}

	return created, nil
}

// generateVariants renders the responsive WebP set for an image and
// uploads each one. Failures degrade to the original only.
func (a *Admin) generateVariants(r *http.Request, media *models.Media, original []byte, bucket, fileID string, now time.Time) {
	processed, err := imaging.GenerateVariants(original, imaging.DefaultVariants)
	if err != nil {
		slog.Warn("variant generation failed", "error", err, "media", media.ID)
		return
	}

	ctx := r.Context()
	var thumbKey *string
	for _, p := range processed {
		key := fmt.Sprintf("media/%d/%02d/%s_%s.webp", now.Year(), now.Month(), fileID, p.Name)
		if err := a.storageClient.Upload(ctx, bucket, key, p.ContentType, bytes.NewReader(p.Data), int64(len(p.Data))); err != nil {
			slog.Warn("variant upload failed", "error", err, "key", key)
			continue
		}
		if err := a.mediaStore.CreateVariant(&models.MediaVariant{
			MediaID:   media.ID,
			Name:      p.Name,
			S3Key:     key,
			Width:     p.Width,
			Height:    p.Height,
			SizeBytes: int64(len(p.Data)),
		}); err != nil {
			slog.Warn("variant insert failed", "error", err, "key", key)
			continue
		}
		if p.Name == "thumb" {
			k := key
			thumbKey = &k
		}
	}

	if thumbKey != nil {
		if err := a.mediaStore.UpdateThumbKey(media.ID, thumbKey); err != nil {
			slog.Warn("thumb key update failed", "error", err, "media", media.ID)
		} else {
			media.ThumbS3Key = thumbKey
		}
	}
}

// publicBaseURL returns the public bucket base without a trailing slash,
// for templates that append keys themselves.
func (a *Admin) publicBaseURL() string {
	if a.storageClient == nil {
		return ""
	}
	return strings.TrimSuffix(a.storageClient.FileURL(""), "/")
}

// sniffContentType detects the MIME type from the leading bytes, special
// casing SVG and zip-container office formats that sniffing cannot tell
// apart from their envelope.
func sniffContentType(head []byte, filename string) string {
	contentType := http.DetectContentType(head)
	ext := strings.ToLower(filepath.Ext(filename))

	if ext == ".svg" && (strings.Contains(contentType, "xml") || strings.Contains(contentType, "text/plain")) {
		return "image/svg+xml"
	}
	if contentType == "application/zip" {
		if mapped, ok := officeExtensions[ext]; ok {
			return mapped
		}
	}
	return contentType
}

// extensionFromType returns a file extension for known MIME types.
func extensionFromType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "application/pdf":
		return ".pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ".xlsx"
	default:
		return ""
	}
}
