package analysis

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
)

// SilenceFloorDB is the value assigned to chunks with zero energy. True
// digital silence is -inf dBFS; the floor keeps the sequence numeric.
const SilenceFloorDB = -90.0

// progressStride controls how often loudness analysis reports progress.
const progressStride = 20

// LoudnessAnalyzer splits a decoded audio track into fixed-length chunks
// and measures each chunk's loudness in dBFS.
type LoudnessAnalyzer struct {
	logger  zerolog.Logger
	chunkMs int
}

// NewLoudnessAnalyzer creates an analyzer with the given chunk length in
// milliseconds.
func NewLoudnessAnalyzer(logger zerolog.Logger, chunkMs int) *LoudnessAnalyzer {
	if chunkMs <= 0 {
		chunkMs = 100
	}
	return &LoudnessAnalyzer{
		logger:  logger.With().Str("component", "loudness").Logger(),
		chunkMs: chunkMs,
	}
}

// AnalyzeFile decodes a WAV file and analyzes it chunk by chunk. Returns
// the summary and the audio's total duration in milliseconds.
func (a *LoudnessAnalyzer) AnalyzeFile(path string, progress ProgressFunc) (Summary, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, 0, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return Summary{}, 0, fmt.Errorf("not a valid wav file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Summary{}, 0, fmt.Errorf("read PCM buffer: %w", err)
	}

	sampleRate := buf.Format.SampleRate
	if sampleRate <= 0 {
		return Summary{}, 0, fmt.Errorf("invalid sample rate in %s", path)
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	summary := a.analyzePCM(buf.Data, sampleRate*channels, bitDepth, progress)
	durationMs := int64(len(buf.Data)) * 1000 / int64(sampleRate*channels)

	a.logger.Info().
		Int("chunks", len(summary.Samples)).
		Float64("mean_db", summary.Mean).
		Int64("duration_ms", durationMs).
		Msg("loudness analysis complete")

	return summary, durationMs, nil
}

// analyzePCM computes per-chunk dBFS over interleaved integer samples.
// samplesPerSec is the per-second sample count including all channels.
func (a *LoudnessAnalyzer) analyzePCM(data []int, samplesPerSec, bitDepth int, progress ProgressFunc) Summary {
	chunkSamples := samplesPerSec * a.chunkMs / 1000
	if chunkSamples < 1 {
		chunkSamples = 1
	}
	fullScale := float64(int64(1) << (bitDepth - 1))

	chunkCount := (len(data) + chunkSamples - 1) / chunkSamples
	samples := make([]Sample, 0, chunkCount)

	for i := 0; i < chunkCount; i++ {
		start := i * chunkSamples
		end := start + chunkSamples
		if end > len(data) {
			end = len(data)
		}

		db := chunkDBFS(data[start:end], fullScale)
		samples = append(samples, Sample{Index: i, Value: db})

		if progress != nil && i%progressStride == 0 {
			progress(float64(i), float64(chunkCount), "analyzing audio")
		}
	}

	// Statistics over valid samples only; floor entries stay in the
	// sequence so thresholding remains aligned with time.
	min, max, sum, valid := math.Inf(1), math.Inf(-1), 0.0, 0
	for _, s := range samples {
		if s.Value > SilenceFloorDB {
			if s.Value < min {
				min = s.Value
			}
			if s.Value > max {
				max = s.Value
			}
			sum += s.Value
			valid++
		}
	}

	if valid == 0 {
		return Summary{Min: SilenceFloorDB, Max: SilenceFloorDB, Mean: SilenceFloorDB, Samples: samples}
	}
	return Summary{Min: min, Max: max, Mean: sum / float64(valid), Samples: samples}
}

// chunkDBFS returns the chunk's RMS loudness relative to full scale, or
// SilenceFloorDB for a zero-energy chunk.
func chunkDBFS(chunk []int, fullScale float64) float64 {
	if len(chunk) == 0 {
		return SilenceFloorDB
	}
	var sumSquares float64
	for _, v := range chunk {
		x := float64(v)
		sumSquares += x * x
	}
	if sumSquares == 0 {
		return SilenceFloorDB
	}
	rms := math.Sqrt(sumSquares / float64(len(chunk)))
	return 20 * math.Log10(rms/fullScale)
}
