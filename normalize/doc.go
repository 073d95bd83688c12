// Package normalize cleans scraped recipe fields into canonical form.
//
// Normalization is a pure transformation: titles lose promotional stop words,
// parenthetical and bracketed asides and anything after a decorative delimiter;
// ingredient lists become a single line of comma separated items. Missing
// fields stay empty rather than failing.
package normalize
