package rating

import "github.com/chessmeet/chessmeet/internal/model"

// Tier boundaries. A rating equal to a boundary belongs to the higher tier.
const (
	MedioFrom    = 1200
	AvanzadoFrom = 1800
)

// SkillForRating maps a best rating onto a tier. No rating at all is
// principiante.
func SkillForRating(best *int) model.SkillLevel {
	switch {
	case best == nil || *best < MedioFrom:
		return model.SkillPrincipiante
	case *best < AvanzadoFrom:
		return model.SkillMedio
	default:
		return model.SkillAvanzado
	}
}

// Normalize builds the RatingInfo for r: best_rating is the highest of the
// available ratings, or nil if there are none.
func Normalize(platform model.Platform, username string, r Ratings) model.RatingInfo {
	var best *int
	for _, v := range []*int{r.Rapid, r.Blitz, r.Bullet} {
		if v != nil && (best == nil || *v > *best) {
			n := *v
			best = &n
		}
	}
	return model.RatingInfo{
		Platform:     platform,
		Username:     username,
		RapidRating:  r.Rapid,
		BlitzRating:  r.Blitz,
		BulletRating: r.Bullet,
		BestRating:   best,
		SkillLevel:   SkillForRating(best),
	}
}
