package aggregate

import "testing"

func TestAggregateOrdersByValueDescending(t *testing.T) {
	repos := []Repository{
		{Language: "Go"},
		{Language: "Go"},
		{Language: "Go"},
		{Language: "Python"},
		{Language: "Python"},
		{Language: "Rust"},
	}
	buckets := Aggregate(repos)
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets, want 3", len(buckets))
	}
	if buckets[0].Key != "Go" || buckets[0].Value != 3 {
		t.Errorf("buckets[0] = %+v, want Go/3", buckets[0])
	}
	if buckets[1].Key != "Python" || buckets[1].Value != 2 {
		t.Errorf("buckets[1] = %+v, want Python/2", buckets[1])
	}
	if buckets[2].Key != "Rust" || buckets[2].Value != 1 {
		t.Errorf("buckets[2] = %+v, want Rust/1", buckets[2])
	}
}

func TestAggregateForksExcludedFromLanguageCount(t *testing.T) {
	repos := []Repository{
		{Language: "Go", IsFork: true},
		{Language: "Go"},
	}
	buckets := Aggregate(repos)
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	var forkBucket, goBucket *Bucket
	for i := range buckets {
		switch buckets[i].Key {
		case forksKey:
			forkBucket = &buckets[i]
		case "Go":
			goBucket = &buckets[i]
		}
	}
	if forkBucket == nil || forkBucket.Value != 1 {
		t.Fatalf("fork bucket = %+v", forkBucket)
	}
	if goBucket == nil || goBucket.Value != 1 {
		t.Fatalf("go bucket = %+v", goBucket)
	}
}

func TestAggregateEmptyLanguageFoldsToUnknown(t *testing.T) {
	buckets := Aggregate([]Repository{{Language: ""}})
	if len(buckets) != 1 || buckets[0].Key != unknownKey {
		t.Fatalf("buckets = %+v, want single Unknown bucket", buckets)
	}
}

func TestAggregateNoRepositories(t *testing.T) {
	buckets := Aggregate(nil)
	if len(buckets) != 0 {
		t.Fatalf("buckets = %+v, want empty", buckets)
	}
}

func TestColorForKnownAndUnknownLanguage(t *testing.T) {
	if colorFor("Go") == fallback {
		t.Error("Go should have a dedicated color, not the fallback")
	}
	if colorFor("SomeLanguageNobodyMapped") != fallback {
		t.Error("unmapped language should fall back to the default color")
	}
	if colorFor(unknownKey) != fallback {
		t.Error("Unknown should use the same fallback color as any unmapped language")
	}
}
