// Package scraper discovers monthly A&E CSV links on the NHS England
// statistics site.
//
// Each fiscal year has an index page at
// {base}ae-attendances-and-emergency-admissions-{YYYY-YY}/. The scraper
// builds those URLs, optionally checks that each exists with a HEAD request,
// then fetches the page and keeps anchors whose text starts with
// "Monthly A&E" and whose href ends in ".csv". Anchor order in the page is
// preserved.
package scraper
