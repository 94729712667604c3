package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"incidentwatch/report-pipeline/internal/geocoder"
	"incidentwatch/report-pipeline/models"
)

// errLocationNameRequired fails candidates that carry no location name in
// either language. The exact wording is part of the job record contract.
var errLocationNameRequired = errors.New("Location name is required.")

// resolveLocation geocodes one candidate's location and writes the chosen
// coordinates as [longitude, latitude]. The Arabic and English lookups run
// sequentially and independently; when both hit, the higher quality wins and
// a tie goes to the Arabic result. Failure here is scoped to this candidate.
func (p *Pipeline) resolveLocation(ctx context.Context, v *models.Violation) error {
	name := v.Location.Name
	division := v.Location.AdministrativeDivision

	if name.Empty() {
		return errLocationNameRequired
	}

	arResults := p.lookup(ctx, name.Ar, division.Ar)
	enResults := p.lookup(ctx, name.En, division.En)

	var chosen *geocoder.Result
	switch {
	case len(arResults) > 0 && len(enResults) > 0:
		if arResults[0].Quality >= enResults[0].Quality {
			chosen = &arResults[0]
		} else {
			chosen = &enResults[0]
		}
	case len(arResults) > 0:
		chosen = &arResults[0]
	case len(enResults) > 0:
		chosen = &enResults[0]
	default:
		return fmt.Errorf("could not resolve location to coordinates (tried %q and %q)", name.Ar, name.En)
	}

	v.Location.Coordinates = []float64{chosen.Longitude, chosen.Latitude}
	return nil
}

// lookup wraps one geocode call. A transport error counts as a miss for the
// selection rule; the other language may still resolve the candidate.
func (p *Pipeline) lookup(ctx context.Context, placeName, adminDivision string) []geocoder.Result {
	if placeName == "" {
		return nil
	}
	results, err := p.geocoder.Geocode(ctx, placeName, adminDivision)
	if err != nil {
		p.logger.WithFields(logrus.Fields{"place": placeName, "error": err.Error()}).Warn("Geocode lookup failed")
		return nil
	}
	return results
}
