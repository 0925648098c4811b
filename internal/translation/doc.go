// Package translation keeps profile biographies available in every supported
// target language.
//
// Translations are computed in the background. A read of a profile whose
// translation set is incomplete schedules a job; the job walks the target
// languages one at a time through the provider chain and persists each
// transition through the profile repository. At most one job runs per
// profile and bio fingerprint. Editing the bio changes the fingerprint,
// which invalidates the set and makes any older job abort on its next read.
package translation
