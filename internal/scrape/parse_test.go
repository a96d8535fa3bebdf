package scrape

import (
	"errors"
	"testing"

	"github.com/rigmatch/rigmatch/pkg/models"
)

const cpuListingHTML = `<!DOCTYPE html>
<html><body>
<table id="cputable">
<tr><th>Name</th><th>CPU Mark</th><th>Rank</th></tr>
<tr><td>AMD Ryzen 7 7800X3D</td><td>34,500</td><td>1</td></tr>
<tr><td>Intel Core i5-13600K</td><td>26,000</td><td>2</td></tr>
<tr><td>12</td><td>9,999</td><td>3</td></tr>
<tr><td>Bad Row</td><td>not-a-number</td><td>4</td></tr>
</table>
</body></html>`

const ramListingHTML = `<!DOCTYPE html>
<html><body>
<table id="cputable">
<tr><th>Name</th><th>Latency</th><th>Read</th><th>Write</th></tr>
<tr><td>Kingston Fury Beast 6000 C36</td><td>36</td><td>100</td><td>50</td></tr>
<tr><td>Broken Kit</td><td>40</td><td>n/a</td><td>50</td></tr>
</table>
</body></html>`

const storageListingHTML = `<!DOCTYPE html>
<html><body>
<table id="cputable">
<tr><th>Name</th><th>Capacity</th><th>Disk Mark</th></tr>
<tr><td>Samsung 990 Pro 2TB</td><td>2TB</td><td>45,000</td></tr>
</table>
</body></html>`

func TestParseListingCPU(t *testing.T) {
	listings, err := ParseListing([]byte(cpuListingHTML), models.TypeCPU)
	if err != nil {
		t.Fatal(err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2 (digit-only and malformed rows skipped)", len(listings))
	}
	if listings[0].Name != "AMD Ryzen 7 7800X3D" || listings[0].RawScore != 34500 {
		t.Errorf("first row = %+v", listings[0])
	}
	if listings[0].Rank != 1 || listings[1].Rank != 2 {
		t.Errorf("ranks = %d, %d, want 1, 2", listings[0].Rank, listings[1].Rank)
	}
}

func TestParseListingRAMSyntheticScore(t *testing.T) {
	listings, err := ParseListing([]byte(ramListingHTML), models.TypeRAM)
	if err != nil {
		t.Fatal(err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings, want 1", len(listings))
	}
	// (100*0.6 + 50*0.4) * 300 = 24000.
	if listings[0].RawScore != 24000 {
		t.Errorf("synthetic score = %d, want 24000", listings[0].RawScore)
	}
}

func TestParseListingStorageScoreColumn(t *testing.T) {
	listings, err := ParseListing([]byte(storageListingHTML), models.TypeStorage)
	if err != nil {
		t.Fatal(err)
	}
	if len(listings) != 1 || listings[0].RawScore != 45000 {
		t.Fatalf("listings = %+v, want one row scored 45000", listings)
	}
}

func TestParseListingNoTable(t *testing.T) {
	_, err := ParseListing([]byte("<html><body><p>maintenance</p></body></html>"), models.TypeCPU)
	if !errors.Is(err, ErrNoTable) {
		t.Errorf("err = %v, want ErrNoTable", err)
	}
}

const cpuPageHTML = `<!DOCTYPE html>
<html><head><title>AMD Ryzen 7 7800X3D - Benchmark Charts</title></head>
<body>
<span class="cpuname">AMD Ryzen 7 7800X3D</span>
<div>CPU Mark: 34,500</div>
<div>Single Thread Rating: 3,900</div>
<div>Cores: 8 Threads: 16</div>
<div>TDP: 120 W</div>
</body></html>`

const gpuPageHTML = `<!DOCTYPE html>
<html><head><title>GeForce RTX 4070 - PassMark</title></head>
<body>
<h1>GeForce RTX 4070</h1>
<div>G3D Mark: 26,800</div>
<div>Memory Size: 12 GB</div>
<div>TDP: 200 W</div>
</body></html>`

func TestParseComponentPageCPU(t *testing.T) {
	details, err := ParseComponentPage([]byte(cpuPageHTML), models.TypeCPU)
	if err != nil {
		t.Fatal(err)
	}
	if details.Name != "AMD Ryzen 7 7800X3D" {
		t.Errorf("name = %q", details.Name)
	}
	if details.RawScore != 34500 {
		t.Errorf("score = %d, want 34500", details.RawScore)
	}
	if details.Cores != 8 || details.Threads != 16 {
		t.Errorf("cores/threads = %d/%d, want 8/16", details.Cores, details.Threads)
	}
	if details.SingleThreadRating != 3900 {
		t.Errorf("single thread = %d, want 3900", details.SingleThreadRating)
	}
	if details.TDPWatts != 120 {
		t.Errorf("tdp = %d, want 120", details.TDPWatts)
	}
}

func TestParseComponentPageGPU(t *testing.T) {
	details, err := ParseComponentPage([]byte(gpuPageHTML), models.TypeGPU)
	if err != nil {
		t.Fatal(err)
	}
	if details.Name != "GeForce RTX 4070" {
		t.Errorf("name = %q", details.Name)
	}
	if details.RawScore != 26800 {
		t.Errorf("score = %d, want 26800", details.RawScore)
	}
	if details.MemorySizeGB != 12 {
		t.Errorf("memory = %d, want 12", details.MemorySizeGB)
	}
}

func TestParseComponentPageMissingScore(t *testing.T) {
	page := `<html><body><span class="cpuname">Mystery Part</span></body></html>`
	if _, err := ParseComponentPage([]byte(page), models.TypeCPU); err == nil {
		t.Error("expected an error for a page with no score")
	}
}
