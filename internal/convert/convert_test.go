package convert

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dsc2asc/internal/descriptor"
	"github.com/verte-zerg/dsc2asc/internal/format"
	"github.com/verte-zerg/dsc2asc/internal/model"
)

func packLE(t *testing.T, values ...float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range values {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(v)))
	}
	return buf.Bytes()
}

func profile(t *testing.T, name string) model.FormatProfile {
	t.Helper()
	reg, err := format.NewRegistry()
	require.NoError(t, err)
	p, err := reg.Lookup(name)
	require.NoError(t, err)
	return p
}

type failingResolver struct {
	MemoryResolver
	failExt string
}

func (r failingResolver) Resolve(ctx context.Context, iv model.ScanInterval) ([]byte, error) {
	if iv.FileExtension == r.failExt {
		return nil, errors.New("device not ready")
	}
	return r.MemoryResolver.Resolve(ctx, iv)
}

func TestConvertEligibleAndConvertible(t *testing.T) {
	desc := descriptor.Parse("[Intervals]\n" +
		"10;10.04;0.02;0;0;0;0;0;1;RAW\n" +
		"20;30;0.1;0;0;0;0;0;0;R02\n" +
		"30;40;0.1;0;0;0;0;0;1;R03\n")
	res := MemoryResolver{Base: "Scan", Files: map[string][]byte{
		"scan.raw": packLE(t, 123.4, 125, 7),
		"scan.r02": packLE(t, 1),
	}}

	result, err := Convert(context.Background(), desc, "Scan", res, profile(t, "csv_ru"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Eligible)
	assert.Equal(t, 1, result.Convertible)
	assert.Equal(t, 1, result.Converted())
	assert.Empty(t, result.Failures)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, "Scan_raw.csv", result.Outputs[0].Name)
	assert.Equal(t, 0, result.Outputs[0].Interval)
	assert.Equal(t, "10,0000;123,4\n10,0200;125,0\n10,0400;7,0\n", result.Outputs[0].Content)
}

func TestConvertInvalidDescriptor(t *testing.T) {
	desc := descriptor.Parse("[General]\nmethod=1\n")
	_, err := Convert(context.Background(), desc, "scan", MemoryResolver{}, profile(t, "asc"))
	assert.ErrorIs(t, err, descriptor.ErrNoIntervals)
}

func TestConvertContinuesAfterFailures(t *testing.T) {
	desc := descriptor.Parse("[Intervals]\n" +
		"1;2;0.5;0;0;0;0;0;1;a\n" +
		"x;2;0.5;0;0;0;0;0;1;b\n" +
		"1;2;0.5;0;0;0;0;0;1;c\n" +
		"5;6;0.5;0;0;0;0;0;1;d\n")
	res := failingResolver{
		MemoryResolver: MemoryResolver{Base: "s", Files: map[string][]byte{
			"s.a": packLE(t, 1),
			"s.b": packLE(t, 2),
			"s.c": packLE(t, 3),
			"s.d": packLE(t, 4, 5),
		}},
		failExt: "c",
	}

	result, err := Convert(context.Background(), desc, "s", res, profile(t, "asc"))
	require.NoError(t, err)
	assert.Equal(t, 4, result.Eligible)
	assert.Equal(t, 3, result.Convertible)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, 1, result.Failures[0].Interval)
	assert.ErrorIs(t, result.Failures[0].Err, ErrInvalidAxis)
	assert.Equal(t, "c", result.Failures[1].Extension)
	assert.ErrorContains(t, result.Failures[1].Err, "device not ready")

	require.Len(t, result.Outputs, 2)
	assert.Equal(t, "s_a.asc", result.Outputs[0].Name)
	assert.Equal(t, "s_d.asc", result.Outputs[1].Name)
	assert.Equal(t, "5.0000 4.0\n5.5000 5.0\n", result.Outputs[1].Content)
}

func TestConvertSharedExtensionNamesDoNotCollide(t *testing.T) {
	desc := descriptor.Parse("[Intervals]\n" +
		"10;20;0.1;0;0;0;0;0;1;raw\n" +
		"20;30;0.1;0;0;0;0;0;1;raw\n")
	res := MemoryResolver{Base: "q", Files: map[string][]byte{"q.raw": packLE(t, 1, 2)}}

	result, err := Convert(context.Background(), desc, "q", res, profile(t, "asc"))
	require.NoError(t, err)
	require.Len(t, result.Outputs, 2)
	assert.Equal(t, "q_raw.asc", result.Outputs[0].Name)
	assert.Equal(t, "q_raw_2.asc", result.Outputs[1].Name)
	assert.Equal(t, "20.0000 1.0\n20.1000 2.0\n", result.Outputs[1].Content)

	t.Run("SuffixMatchesAnotherExtension", func(t *testing.T) {
		desc := descriptor.Parse("[Intervals]\n" +
			"10;20;0.1;0;0;0;0;0;1;raw\n" +
			"20;30;0.1;0;0;0;0;0;1;raw_3\n" +
			"30;40;0.1;0;0;0;0;0;1;raw\n")
		res := MemoryResolver{Base: "s", Files: map[string][]byte{
			"s.raw":   packLE(t, 1),
			"s.raw_3": packLE(t, 2),
		}}
		result, err := Convert(context.Background(), desc, "s", res, profile(t, "asc"))
		require.NoError(t, err)
		require.Len(t, result.Outputs, 3)
		names := map[string]struct{}{}
		for _, out := range result.Outputs {
			names[out.Name] = struct{}{}
		}
		assert.Len(t, names, 3)
		assert.Equal(t, "s_raw_3.asc", result.Outputs[1].Name)
		assert.Equal(t, "s_raw_4.asc", result.Outputs[2].Name)
	})
}

func TestConvertCancelled(t *testing.T) {
	desc := descriptor.Parse("[Intervals]\n1;2;0.5;0;0;0;0;0;1;a\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := Convert(ctx, desc, "s", MemoryResolver{Base: "s"}, profile(t, "asc"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Outputs)
}

func TestInterval(t *testing.T) {
	out, err := Interval(model.ScanInterval{Start: 10, Step: 0.02}, append(packLE(t, 1, 2), 0xff, 0xff), profile(t, "csv_std"))
	require.NoError(t, err)
	assert.Equal(t, "10.0000,1.0\n10.0200,2.0\n", out)

	_, err = Interval(model.ScanInterval{Start: 1, Step: math.NaN()}, packLE(t, 1), profile(t, "asc"))
	assert.ErrorIs(t, err, ErrInvalidAxis)
}

func TestSamples(t *testing.T) {
	res := MemoryResolver{Base: "s", Files: map[string][]byte{"s.raw": packLE(t, 3, 4)}}
	xs, ys, err := Samples(context.Background(), res, model.ScanInterval{Start: 20, Step: 0.5, FileExtension: "raw"})
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 20.5}, xs)
	assert.Equal(t, []float32{3, 4}, ys)

	_, _, err = Samples(context.Background(), res, model.ScanInterval{FileExtension: "r09"})
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestSurvey(t *testing.T) {
	desc := descriptor.Parse("[Intervals]\n" +
		"10;80;0.02;0;0;0;0;0;0;r00\n" +
		"10;80;0.02;0;0;0;0;0;1;r01\n" +
		"80;90.5;0.05;0;0;0;0;0;1;r02\n")
	res := MemoryResolver{Base: "scan", Files: map[string][]byte{"scan.r02": nil}}

	items, present := Survey(desc, res)
	require.Len(t, items, 2)
	assert.Equal(t, 1, present)
	assert.Equal(t, "2: 10° - 80° [missing]", items[0].Label())
	assert.Equal(t, "3: 80° - 90.5° [OK]", items[1].Label())
	assert.Equal(t, 2, FirstPresent(items))
	assert.Equal(t, -1, FirstPresent(items[:1]))
}
