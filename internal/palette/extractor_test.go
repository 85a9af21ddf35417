package palette

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"slices"
	"testing"

	"github.com/muesli/clusters"

	"studio/internal/domain"
)

var stripeColours = []color.NRGBA{
	{10, 10, 10, 255},
	{40, 20, 30, 255},
	{200, 30, 30, 255},
	{30, 160, 40, 255},
	{40, 60, 200, 255},
	{128, 128, 128, 255},
	{220, 220, 210, 255},
	{250, 250, 250, 255},
}

func stripedPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	stripe := width / len(stripeColours)
	for x := 0; x < width; x++ {
		c := stripeColours[min(x/stripe, len(stripeColours)-1)]
		for y := 0; y < height; y++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestExtractIsDeterministic(t *testing.T) {
	data := stripedPNG(t, 512, 64)
	e := NewExtractor(Options{})

	first, err := e.Extract(context.Background(), data, DefaultSeed)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	second, err := e.Extract(context.Background(), data, DefaultSeed)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("palettes differ:\n%+v\n%+v", first, second)
	}
}

func TestExtractBucketSizes(t *testing.T) {
	e := NewExtractor(Options{})
	p, err := e.Extract(context.Background(), stripedPNG(t, 256, 32), 7)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(p.Samples) != DefaultClusters {
		t.Fatalf("len(Samples) = %d, want %d", len(p.Samples), DefaultClusters)
	}
	if !slices.IsSortedFunc(p.Samples, func(a, b domain.ColourSample) int {
		switch {
		case a.Brightness < b.Brightness:
			return -1
		case a.Brightness > b.Brightness:
			return 1
		}
		return 0
	}) {
		t.Fatalf("samples not sorted by brightness: %+v", p.Samples)
	}
	if len(p.Buckets.Background) != 2 {
		t.Fatalf("len(Background) = %d, want 2", len(p.Buckets.Background))
	}
	if len(p.Buckets.Text) != 2 {
		t.Fatalf("len(Text) = %d, want 2", len(p.Buckets.Text))
	}
	if n := len(p.Buckets.Primary); n == 0 || n > 3 {
		t.Fatalf("len(Primary) = %d, want 1..3", n)
	}
	if n := len(p.Buckets.Accent); n == 0 || n > 3 {
		t.Fatalf("len(Accent) = %d, want 1..3", n)
	}
	for _, hex := range slices.Concat(p.Buckets.Primary, p.Buckets.Accent, p.Buckets.Background, p.Buckets.Text) {
		if len(hex) != 7 || hex[0] != '#' {
			t.Fatalf("bucket value %q is not a hex colour", hex)
		}
	}
}

func TestExtractRejectsCorruptImage(t *testing.T) {
	e := NewExtractor(Options{})
	_, err := e.Extract(context.Background(), []byte("definitely not an image"), DefaultSeed)
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("Extract error = %v, want ErrExtraction", err)
	}
}

func TestExtractHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewExtractor(Options{})
	if _, err := e.Extract(ctx, stripedPNG(t, 64, 8), DefaultSeed); !errors.Is(err, context.Canceled) {
		t.Fatalf("Extract error = %v, want context.Canceled", err)
	}
}

func TestPartitionRespectsIterationCap(t *testing.T) {
	obs := clusters.Observations{}
	for i := 0; i < 200; i++ {
		obs = append(obs, clusters.Coordinates{float64(i), float64(i * 7 % 255), float64(255 - i)})
	}
	_, rounds, err := partition(context.Background(), obs, 8, 1, 42)
	if err != nil {
		t.Fatalf("partition returned error: %v", err)
	}
	if rounds != 1 {
		t.Fatalf("rounds = %d, want 1", rounds)
	}
	_, rounds, err = partition(context.Background(), obs, 8, 20, 42)
	if err != nil {
		t.Fatalf("partition returned error: %v", err)
	}
	if rounds < 1 || rounds > 20 {
		t.Fatalf("rounds = %d, want 1..20", rounds)
	}
}

func TestPartitionKeepsEmptyClusterCentre(t *testing.T) {
	obs := clusters.Observations{
		clusters.Coordinates{0, 0, 0},
		clusters.Coordinates{0, 0, 0},
		clusters.Coordinates{255, 255, 255},
	}
	cc, rounds, err := partition(context.Background(), obs, 3, 20, 1)
	if err != nil {
		t.Fatalf("partition returned error: %v", err)
	}
	if rounds != 1 {
		t.Fatalf("rounds = %d, want 1 (no centre moves)", rounds)
	}
	empty := 0
	for _, c := range cc {
		if len(c.Observations) == 0 {
			empty++
			if !slices.Equal(c.Center, clusters.Coordinates{0, 0, 0}) {
				t.Fatalf("empty cluster centre moved to %v", c.Center)
			}
		}
	}
	if empty != 1 {
		t.Fatalf("empty clusters = %d, want 1", empty)
	}
}

func TestPartitionCapsClustersAtObservationCount(t *testing.T) {
	obs := clusters.Observations{clusters.Coordinates{1, 2, 3}, clusters.Coordinates{4, 5, 6}}
	cc, _, err := partition(context.Background(), obs, 8, 20, 42)
	if err != nil {
		t.Fatalf("partition returned error: %v", err)
	}
	if len(cc) != 2 {
		t.Fatalf("len(clusters) = %d, want 2", len(cc))
	}
}

func TestBucketize(t *testing.T) {
	samples := []domain.ColourSample{
		{Hex: "#000000", Brightness: 0},
		{Hex: "#111111", Brightness: 17},
		{Hex: "#aa2222", Brightness: 70, Saturation: 0.8},
		{Hex: "#555555", Brightness: 85},
		{Hex: "#22aa22", Brightness: 110, Saturation: 0.8},
		{Hex: "#999999", Brightness: 153},
		{Hex: "#eeeeee", Brightness: 238},
		{Hex: "#ffffff", Brightness: 255},
	}
	got := bucketize(samples)
	want := domain.ColourBuckets{
		Primary:    []string{"#555555", "#999999"},
		Accent:     []string{"#aa2222", "#22aa22"},
		Background: []string{"#000000", "#111111"},
		Text:       []string{"#eeeeee", "#ffffff"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("bucketize = %+v, want %+v", got, want)
	}
}

func TestBucketizeFallsBackToMedian(t *testing.T) {
	samples := make([]domain.ColourSample, 8)
	for i := range samples {
		samples[i] = domain.ColourSample{Hex: "#0" + string(rune('0'+i)) + "0000", Brightness: float64(i)}
	}
	got := bucketize(samples)
	if len(got.Accent) != 1 || got.Accent[0] != samples[4].Hex {
		t.Fatalf("Accent = %v, want [%s]", got.Accent, samples[4].Hex)
	}
	if len(got.Primary) != 3 {
		t.Fatalf("len(Primary) = %d, want 3", len(got.Primary))
	}
}

func TestSampleFromCentre(t *testing.T) {
	s := sampleFromCentre(clusters.Coordinates{255.9, 0.4, -3})
	if s.Hex != "#ff0000" {
		t.Fatalf("Hex = %q, want #ff0000", s.Hex)
	}
	if s.Saturation != 1 {
		t.Fatalf("Saturation = %v, want 1", s.Saturation)
	}
	black := sampleFromCentre(clusters.Coordinates{0, 0, 0})
	if black.Saturation != 0 || black.Brightness != 0 {
		t.Fatalf("black sample = %+v, want zero brightness and saturation", black)
	}
}
