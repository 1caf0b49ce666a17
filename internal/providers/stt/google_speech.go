package stt

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

const DefaultLanguage = "en-US"

type GoogleSpeech struct {
	c *speech.Client
}

var _ Provider = (*GoogleSpeech)(nil)

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{c: c}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// recognitionConfig maps the upload's content type to a recognizer config.
// Browsers record webm/ogg opus at 48 kHz; wav uploads are 16 kHz PCM.
func recognitionConfig(mimeType, language string) (*speechpb.RecognitionConfig, error) {
	cfg := &speechpb.RecognitionConfig{
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
	}

	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch mt {
	case "audio/webm":
		cfg.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
		cfg.SampleRateHertz = 48000
	case "audio/ogg":
		cfg.Encoding = speechpb.RecognitionConfig_OGG_OPUS
		cfg.SampleRateHertz = 48000
	case "audio/wav", "audio/x-wav", "audio/l16":
		cfg.Encoding = speechpb.RecognitionConfig_LINEAR16
		cfg.SampleRateHertz = 16000
	case "audio/flac", "audio/x-flac":
		// rate is read from the header
		cfg.Encoding = speechpb.RecognitionConfig_FLAC
	default:
		return nil, ErrUnsupportedFormat
	}
	return cfg, nil
}

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, mimeType, language string) (string, float64, error) {
	if language == "" {
		language = DefaultLanguage
	}
	cfg, err := recognitionConfig(mimeType, language)
	if err != nil {
		return "", 0, err
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", 0, err
	}

	// results are consecutive segments; join the top alternative of each
	var (
		parts []string
		conf  float64
	)
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 || r.Alternatives[0].Transcript == "" {
			continue
		}
		alt := r.Alternatives[0]
		parts = append(parts, strings.TrimSpace(alt.Transcript))
		conf += float64(alt.Confidence)
	}
	if len(parts) == 0 {
		return "", 0, nil
	}
	return strings.Join(parts, " "), conf / float64(len(parts)), nil
}
