package delivery

import (
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/lingua_tutor/internal/metrics"
	"github.com/Vovarama1992/lingua_tutor/internal/pipeline"
	"github.com/Vovarama1992/lingua_tutor/internal/tutor"
)

const (
	defaultMaxUpload = 25 << 20
	multipartMemory  = 10 << 20
)

type TranscribeHandler struct {
	pipeline  Pipeline
	store     SessionStore
	metrics   *metrics.Metrics
	log       *logger.ZapLogger
	maxUpload int64
}

func NewTranscribeHandler(p Pipeline, store SessionStore, m *metrics.Metrics, log *logger.ZapLogger) *TranscribeHandler {
	return &TranscribeHandler{
		pipeline:  p,
		store:     store,
		metrics:   m,
		log:       log,
		maxUpload: defaultMaxUpload,
	}
}

func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "invalid multipart", Service: serviceName, Error: err})
		writeError(w, http.StatusBadRequest, "invalid multipart: "+err.Error())
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "missing audio", Service: serviceName, Error: err})
		writeError(w, http.StatusBadRequest, "No audio file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio: "+err.Error())
		return
	}

	level := r.FormValue("level")
	if level == "" {
		level = string(tutor.LevelBeginner)
	}

	key, _ := sessionKey(w, r, true)
	res, err := h.pipeline.Run(r.Context(), pipeline.Request{
		SessionID: key,
		Audio:     data,
		MIMEType:  header.Header.Get("Content-Type"),
		Filename:  header.Filename,
		Level:     level,
	})
	h.metrics.ActiveSessions.Set(float64(h.store.Len()))
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "transcribe failed", Service: serviceName, Error: err})
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"text":     res.RecognizedText,
		"response": res.AssistantText,
		"audio":    res.AudioBase64,
	})
}
