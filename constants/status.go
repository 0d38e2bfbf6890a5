package constants

// Source records which extraction strategy produced a document's text.
type Source string

// Stable values (these strings appear in logs and metrics).
const (
	SourceNative     Source = "native"      // plain text-layer parse
	SourceEnhanced   Source = "enhanced"    // coordinate-aware text-layer parse
	SourceLibraryOCR Source = "library-ocr" // in-process rasterize + OCR engine
	SourceCLIOCR     Source = "cli-ocr"     // pdftoppm + tesseract binaries
	SourceText       Source = "text"        // .txt read directly
	SourceError      Source = "error"       // every strategy fell short; text is a diagnostic
)

// Recommendation is the closed set of advice values on an analysis record.
type Recommendation string

const (
	RecommendAppeal     Recommendation = "appeal"
	RecommendDontAppeal Recommendation = "dont-appeal"
	RecommendReview     Recommendation = "review"
)

// ParseRecommendation maps free text onto the closed set; anything unknown is review.
func ParseRecommendation(s string) Recommendation {
	switch Recommendation(NormalizeToken(s)) {
	case RecommendAppeal:
		return RecommendAppeal
	case RecommendDontAppeal:
		return RecommendDontAppeal
	default:
		return RecommendReview
	}
}
