// Package refdata caches slow-changing geography reference data
// (countries, regions per country, hospitals per region) for the
// lifetime of the process. Fetches happen once per key, concurrent
// misses are de-duplicated, and provider failures degrade to empty or
// fallback results instead of errors.
package refdata
