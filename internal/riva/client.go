// Package riva transcribes captured audio with the Riva offline Recognize RPC.
package riva

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/rbright/murmur/internal/transcript"
)

const sampleRateHertz = 16000

// ErrNoAudio is returned when Transcribe receives an empty buffer.
var ErrNoAudio = errors.New("no audio to transcribe")

// SpeechPhrase is one vocabulary boost phrase in request-ready form.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}

// Config controls recognition requests.
type Config struct {
	Endpoint             string
	LanguageCode         string
	Model                string
	AutomaticPunctuation bool
	SpeechPhrases        []SpeechPhrase
	TrailingSpace        bool
	DialTimeout          time.Duration
	Timeout              time.Duration
}

// Client issues one Recognize call per transcription.
type Client struct {
	cfg Config

	schemaOnce sync.Once
	schema     *schema
	schemaErr  error
}

// New returns a client for cfg.
func New(cfg Config) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if strings.TrimSpace(cfg.LanguageCode) == "" {
		cfg.LanguageCode = "en-US"
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	return &Client{cfg: cfg}
}

// Transcribe sends 16kHz mono s16le PCM to Riva and returns the assembled transcript.
func (c *Client) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	if len(pcm) == 0 {
		return "", ErrNoAudio
	}

	s, err := c.loadSchema()
	if err != nil {
		return "", err
	}

	conn, err := dial(ctx, c.cfg.Endpoint, c.cfg.DialTimeout)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp := dynamicpb.NewMessage(s.response)
	if err := conn.Invoke(callCtx, recognizeMethod, s.newRequest(c.cfg, pcm), resp); err != nil {
		return "", fmt.Errorf("riva recognize: %w", err)
	}

	segments := make([]string, 0)
	for _, text := range s.transcripts(resp) {
		segments = appendSegment(segments, text)
	}

	return transcript.Assemble(segments, transcript.Options{
		TrailingSpace:       c.cfg.TrailingSpace,
		CapitalizeSentences: true,
	}), nil
}

func (c *Client) loadSchema() (*schema, error) {
	c.schemaOnce.Do(func() {
		c.schema, c.schemaErr = buildSchema()
	})
	return c.schema, c.schemaErr
}

// dial connects to endpoint and waits until the channel is ready.
func dial(ctx context.Context, endpoint string, timeout time.Duration) (*grpc.ClientConn, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("riva endpoint is empty")
	}

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial riva grpc %q: %w", endpoint, err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("wait for riva grpc readiness: %w", err)
	}
	return conn, nil
}
