package webstory

import "github.com/eringen/webstory/views"

// staticPages are the information and policy pages linked from the footer,
// keyed by path segment.
var staticPages = map[string]views.StaticPageData{
	"about": {
		Title: "About us",
		Paragraphs: []string{
			"We publish short visual stories on the news, culture and travel, told one tap at a time.",
			"Every story is written and checked by our editorial team before it is published.",
		},
	},
	"contact": {
		Title: "Contact",
		Paragraphs: []string{
			"For editorial questions, corrections or partnership requests, write to the editorial desk using the address listed in the footer.",
			"We aim to reply to every message within two working days.",
		},
	},
	"disclaimer": {
		Title: "Disclaimer",
		Paragraphs: []string{
			"The information on this site is published in good faith and for general information only.",
			"We make no warranties about the completeness or accuracy of this information. Any action you take based on it is strictly at your own risk.",
		},
	},
	"privacy-policy": {
		Title: "Privacy policy",
		Paragraphs: []string{
			"We count story views to understand which stories readers enjoy. Counts are anonymous and are not linked to any personal information.",
			"The admin area uses a session cookie and a CSRF cookie. Readers are not tracked with cookies.",
		},
	},
	"apply-for-job": {
		Title: "Apply for a job",
		Paragraphs: []string{
			"We are always looking for reporters, editors and visual designers.",
			"Send your CV and three published samples to the editorial desk. We will contact shortlisted candidates.",
		},
	},
	"correction-policy": {
		Title: "Correction policy",
		Paragraphs: []string{
			"When we get something wrong we correct it promptly and transparently.",
			"Corrected stories carry an updated date. Significant corrections are noted in the story itself.",
		},
	},
	"dnpa-code-of-ethics": {
		Title: "DNPA code of ethics",
		Paragraphs: []string{
			"We follow the Digital News Publishers Association code of ethics: accuracy, fairness, impartiality and respect for privacy.",
			"We do not publish content that is defamatory, obscene or that infringes intellectual property rights.",
		},
	},
	"fact-checking-policy": {
		Title: "Fact-checking policy",
		Paragraphs: []string{
			"Claims in our stories are checked against primary sources wherever possible.",
			"Readers can flag a possible error through the contact page; every report is reviewed by an editor.",
		},
	},
}
