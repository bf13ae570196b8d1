package recovery

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// Label names one half of a split phrase.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
)

// Fragment is 12 contiguous words of a recovery phrase.
type Fragment struct {
	Label Label
	Words []string
}

func (f Fragment) String() string {
	return strings.Join(f.Words, " ")
}

// Error codes reported by MergeFragments and ValidateFragment.
const (
	CodeWordCount   = "word_count"
	CodeUnknownWord = "unknown_word"
	CodeChecksum    = "checksum"
)

// FragmentError points at the defective fragment so a UI can tell the user
// which sheet to re-check. Fragment is empty for errors about the pair.
type FragmentError struct {
	Fragment Label
	Code     string
	Message  string
}

func (e FragmentError) Error() string {
	if e.Fragment == "" {
		return e.Message
	}
	return fmt.Sprintf("fragment %s: %s", e.Fragment, e.Message)
}

// MergeResult is the outcome of joining two fragments.
type MergeResult struct {
	Mnemonic string
	Valid    bool
	Errors   []FragmentError
}

// SplitFragments cuts a valid phrase at word 12.
func SplitFragments(mnemonic string) (Fragment, Fragment, error) {
	normalized := Normalize(mnemonic)
	if err := ValidateMnemonic(normalized); err != nil {
		return Fragment{}, Fragment{}, err
	}
	words := strings.Fields(normalized)
	return Fragment{Label: LabelA, Words: words[:FragmentWords]},
		Fragment{Label: LabelB, Words: words[FragmentWords:]},
		nil
}

// ValidateFragment checks one fragment on its own: word count and word list
// membership. The checksum can only be checked on the merged phrase.
func ValidateFragment(label Label, text string) []FragmentError {
	words := strings.Fields(strings.ToLower(text))

	var errs []FragmentError
	if len(words) != FragmentWords {
		errs = append(errs, FragmentError{
			Fragment: label,
			Code:     CodeWordCount,
			Message:  fmt.Sprintf("expected %d words, got %d", FragmentWords, len(words)),
		})
	}
	for i, w := range words {
		if _, ok := bip39.GetWordIndex(w); !ok {
			errs = append(errs, FragmentError{
				Fragment: label,
				Code:     CodeUnknownWord,
				Message:  fmt.Sprintf("word %d (%q) is not in the word list", i+1, w),
			})
		}
	}
	return errs
}

// MergeFragments joins A and B and re-validates the checksum. Every problem
// found is reported; Valid is true only when Errors is empty.
func MergeFragments(a, b string) MergeResult {
	errs := append(ValidateFragment(LabelA, a), ValidateFragment(LabelB, b)...)
	if len(errs) > 0 {
		return MergeResult{Errors: errs}
	}

	mnemonic := Normalize(a + " " + b)
	if !bip39.IsMnemonicValid(mnemonic) {
		return MergeResult{Errors: []FragmentError{{
			Code:    CodeChecksum,
			Message: "fragments do not form a valid recovery phrase; check word order and that A and B are not swapped",
		}}}
	}
	return MergeResult{Mnemonic: mnemonic, Valid: true, Errors: []FragmentError{}}
}
