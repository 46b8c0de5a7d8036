package ocsp

import "time"

// Clock returns the current time. It is injected wherever "now" matters.
type Clock func() time.Time

// NoMaxAge disables the maximum age check in CheckValidity.
const NoMaxAge int64 = -1

// CheckValidity checks the status time window against the current time.
// nsec is the tolerated clock skew in seconds; maxsec bounds the age of
// thisUpdate in seconds and is ignored when negative.
func (s *Status) CheckValidity(nsec uint32, maxsec int64) error {
	return s.CheckValidityAt(time.Now(), nsec, maxsec)
}

// CheckValidityAt is CheckValidity with an explicit current time.
func (s *Status) CheckValidityAt(now time.Time, nsec uint32, maxsec int64) error {
	const op = "check validity"

	skew := time.Duration(nsec) * time.Second

	if s.ThisUpdate.Add(-skew).After(now) {
		return errorf(op, ErrNotYetValid, "thisUpdate %s is in the future", s.ThisUpdate.UTC().Format(time.RFC3339))
	}

	// nextUpdate is mandatory.
	if s.NextUpdate.IsZero() {
		return errorf(op, ErrExpired, "nextUpdate is missing")
	}
	if s.NextUpdate.Add(skew).Before(now) {
		return errorf(op, ErrExpired, "nextUpdate %s has passed", s.NextUpdate.UTC().Format(time.RFC3339))
	}

	if maxsec >= 0 && now.Sub(s.ThisUpdate) > time.Duration(maxsec)*time.Second {
		return errorf(op, ErrTooOld, "thisUpdate %s is older than %ds", s.ThisUpdate.UTC().Format(time.RFC3339), maxsec)
	}

	if s.NextUpdate.Before(s.ThisUpdate) {
		return errorf(op, ErrTimeValidity, "nextUpdate is before thisUpdate")
	}
	return nil
}
