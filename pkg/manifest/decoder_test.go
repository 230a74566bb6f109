package manifest

import (
	"fmt"
	"testing"
)

func largeManifest(assets, bundles int) *Manifest {
	m := &Manifest{
		PackageName:    "Large",
		PackageVersion: "v1",
	}
	for i := 0; i < bundles; i++ {
		m.BundleList = append(m.BundleList, Bundle{
			BundleName: fmt.Sprintf("b%03d.bundle", i),
			FileHash:   fmt.Sprintf("%064x", i),
			FileCRC:    fmt.Sprint(i),
			FileSize:   int64(i),
		})
	}
	for i := 0; i < assets; i++ {
		m.AssetList = append(m.AssetList, Asset{
			AssetPath: fmt.Sprintf("Assets/a%04d.asset", i),
			BundleID:  int32(i % bundles),
		})
	}
	return m
}

func TestDecoderStepsInChunks(t *testing.T) {
	data, err := Encode(largeManifest(40, 10))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	d := NewDecoder(data)
	steps := 0
	last := -1.0
	for {
		done, err := d.Step(8)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		steps++
		p := d.Progress()
		if p < last {
			t.Fatalf("progress went backwards: %v -> %v", last, p)
		}
		last = p
		if done {
			break
		}
		if m, _ := d.Result(); m != nil {
			t.Fatal("Result exposed before decode finished")
		}
	}

	// 50 records at 8 per step plus the index step.
	if steps < 7 {
		t.Fatalf("steps = %d, want at least 7", steps)
	}
	if last != 1 {
		t.Fatalf("final progress = %v, want 1", last)
	}
	m, idx := d.Result()
	if m == nil || idx == nil {
		t.Fatal("Result is nil after successful decode")
	}
	if len(m.AssetList) != 40 || len(m.BundleList) != 10 {
		t.Fatalf("decoded %d assets, %d bundles", len(m.AssetList), len(m.BundleList))
	}
}

func TestDecoderStepAfterDoneIsStable(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3, 4, 5})
	done, err1 := d.Step(0)
	if !done || err1 == nil {
		t.Fatalf("Step = %v, %v; want done with error", done, err1)
	}
	done, err2 := d.Step(0)
	if !done || err2 != err1 {
		t.Fatalf("second Step = %v, %v; want %v", done, err2, err1)
	}
}
