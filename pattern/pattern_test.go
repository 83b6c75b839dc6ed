package pattern

import "testing"

func TestMatchExact(t *testing.T) {
	if !Match("SENSOR/A/TEMP", "SENSOR/A/TEMP") {
		t.Fatal("expected exact match")
	}
}

func TestMatchWildcardSegment(t *testing.T) {
	if !Match("SENSOR/*/TEMP", "SENSOR/A/TEMP") {
		t.Fatal("expected wildcard segment to match")
	}
	if !Match("SENSOR/*/TEMP", "SENSOR/B/TEMP") {
		t.Fatal("expected wildcard segment to match a different literal")
	}
}

func TestMatchSegmentCountMismatch(t *testing.T) {
	if Match("SENSOR/*", "SENSOR/A/TEMP") {
		t.Fatal("expected segment-count mismatch to not match")
	}
}

func TestMatchLiteralMismatch(t *testing.T) {
	if Match("SENSOR/A/HUM", "SENSOR/A/TEMP") {
		t.Fatal("expected literal segment mismatch to not match")
	}
}

func TestMatchNoDoubleStarSupport(t *testing.T) {
	// "**" is just a literal segment here, not a recursive wildcard.
	if Match("SENSOR/**", "SENSOR/A/TEMP") {
		t.Fatal("** must not behave as a recursive wildcard")
	}
}
