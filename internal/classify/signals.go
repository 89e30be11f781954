package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledgerflow/ledgerflow/constants"
)

// Signal weights for the voting combine step.
const (
	filenameWeight  = 0.3
	headerWeight    = 0.5
	structureWeight = 0.2

	// headerThreshold is the minimum header-signal score for a type to be
	// proposed at all.
	headerThreshold = 0.3
)

// filenameKeywords is the per-type keyword dictionary tested against the
// lowercased filename.
var filenameKeywords = map[constants.DocumentType][]string{
	constants.BankStatement:    {"bank", "statement", "passbook"},
	constants.SalesRegister:    {"sales", "sales_register", "sales register"},
	constants.PurchaseRegister: {"purchase", "purchases", "purchase_register"},
	constants.Invoice:          {"invoice", "bill"},
}

// headerPatterns holds the substring and regex patterns scored against the
// joined header row. The lists are deliberately short: the score is
// matches / total patterns, and diluting a list with rare synonyms drags
// down confidence on perfectly ordinary files.
type headerPatternSet struct {
	substrings []string
	regexps    []*regexp.Regexp
}

var headerPatterns = map[constants.DocumentType]headerPatternSet{
	constants.BankStatement: {
		substrings: []string{"date", "description", "debit", "credit", "balance"},
		regexps:    []*regexp.Regexp{regexp.MustCompile(`(?i)withdraw|deposit|narration|particulars`)},
	},
	constants.SalesRegister: {
		substrings: []string{"customer", "invoice", "amount"},
	},
	constants.PurchaseRegister: {
		substrings: []string{"vendor", "supplier", "invoice", "amount"},
		regexps:    []*regexp.Regexp{regexp.MustCompile(`(?i)purchase|grn`)},
	},
	constants.Invoice: {
		substrings: []string{"invoice", "due", "tax", "amount"},
		regexps:    []*regexp.Regexp{regexp.MustCompile(`(?i)invoice\s*(no|number|#)`)},
	},
}

// Structure heuristics: generic column shapes that nudge confidence upward.
var (
	amountLikeRe = regexp.MustCompile(`(?i)amount|total|value|balance`)
	dateLikeRe   = regexp.MustCompile(`(?i)date`)
	drCrLikeRe   = regexp.MustCompile(`(?i)debit|credit|withdraw|deposit|\bdr\b|\bcr\b`)
)

// vote is one signal's proposal for one document type.
type vote struct {
	Type       constants.DocumentType
	Confidence float64
	Indicators []string
	Note       string
}

// filenameVotes scores the lowercased filename against the keyword
// dictionary. Score = min(0.8, 0.3 + 0.1*matches) per matched type.
func filenameVotes(filename string) []vote {
	name := strings.ToLower(filename)
	var votes []vote
	for _, t := range constants.ClassifiableTypes {
		var hits []string
		for _, kw := range filenameKeywords[t] {
			if strings.Contains(name, kw) {
				hits = append(hits, "filename:"+kw)
			}
		}
		if len(hits) == 0 {
			continue
		}
		conf := 0.3 + 0.1*float64(len(hits))
		if conf > 0.8 {
			conf = 0.8
		}
		votes = append(votes, vote{
			Type:       t,
			Confidence: conf,
			Indicators: hits,
			Note:       fmt.Sprintf("filename matched %d keyword(s)", len(hits)),
		})
	}
	return votes
}

// headerVote scores each candidate type as
// (substring matches + regex matches) / (total substrings + total regexps)
// over the joined header row, and proposes the best type when its score
// clears headerThreshold.
func headerVote(headers []string) *vote {
	if len(headers) == 0 {
		return nil
	}
	joined := strings.ToLower(strings.Join(headers, " | "))

	var best *vote
	for _, t := range constants.ClassifiableTypes {
		ps := headerPatterns[t]
		total := len(ps.substrings) + len(ps.regexps)
		if total == 0 {
			continue
		}
		var hits []string
		for _, sub := range ps.substrings {
			if strings.Contains(joined, sub) {
				hits = append(hits, "header:"+sub)
			}
		}
		for _, re := range ps.regexps {
			if re.MatchString(joined) {
				hits = append(hits, "header~"+re.String())
			}
		}
		score := float64(len(hits)) / float64(total)
		if score <= headerThreshold {
			continue
		}
		if best == nil || score > best.Confidence ||
			(score == best.Confidence && len(hits) > len(best.Indicators)) {
			v := vote{
				Type:       t,
				Confidence: score,
				Indicators: hits,
				Note:       fmt.Sprintf("headers matched %d/%d patterns", len(hits), total),
			}
			best = &v
		}
	}
	return best
}

// structureVote boosts the header winner when the column shape looks like
// tabular accounting data: +0.1 each for amount-like, date-like and
// debit/credit-like columns, capped at 0.3. Without a header winner there
// is nothing to attribute the shape to, so no vote is cast.
func structureVote(headers []string, winner *vote) *vote {
	if winner == nil || len(headers) == 0 {
		return nil
	}
	joined := strings.Join(headers, " | ")
	conf := 0.0
	var hits []string
	if amountLikeRe.MatchString(joined) {
		conf += 0.1
		hits = append(hits, "structure:amount-like")
	}
	if dateLikeRe.MatchString(joined) {
		conf += 0.1
		hits = append(hits, "structure:date-like")
	}
	if drCrLikeRe.MatchString(joined) {
		conf += 0.1
		hits = append(hits, "structure:debit/credit-like")
	}
	if conf == 0 {
		return nil
	}
	return &vote{
		Type:       winner.Type,
		Confidence: conf,
		Indicators: hits,
		Note:       "column structure resembles accounting data",
	}
}
