package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"likesio/internal/domain"
	"likesio/internal/models"
	"likesio/internal/repository"
	"likesio/pkg/smm"

	"gorm.io/gorm"
)

// CatalogService reconciles the local service catalogue against the upstream panel's live
// list, matching by the panel's service id.
type CatalogService struct {
	serviceRepo *repository.ServiceRepository
	panel       *smm.Client
}

func NewCatalogService(serviceRepo *repository.ServiceRepository, panel *smm.Client) *CatalogService {
	return &CatalogService{serviceRepo: serviceRepo, panel: panel}
}

type SyncResult struct {
	Fetched  int `json:"fetched"`
	Updated  int `json:"updated"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// Sync fetches the panel catalogue and reconciles it locally: update price and limits on a
// japServiceId match, insert (inactive, for admin review) on a miss. Errors are logged
// per item so one bad record does not abort the whole sync.
func (s *CatalogService) Sync(ctx context.Context, platform string) (*SyncResult, error) {
	upstream, err := s.panel.Services(ctx)
	if err != nil {
		return nil, err
	}
	res := &SyncResult{Fetched: len(upstream)}
	for _, item := range upstream {
		p, t := classifyUpstream(item)
		if platform != "" && p != platform {
			res.Skipped++
			continue
		}
		if p == "" || t == "" {
			res.Skipped++
			continue
		}
		japID := item.ID()
		if japID == 0 {
			res.Skipped++
			continue
		}
		existing, err := s.serviceRepo.GetByJapServiceID(japID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Catalog sync] lookup jap_service_id=%d: %v", japID, err)
			res.Errors++
			continue
		}
		if existing != nil {
			existing.BasePrice = item.RateFloat()
			existing.MinQuantity = atoiDefault(item.Min, existing.MinQuantity)
			existing.MaxQuantity = atoiDefault(item.Max, existing.MaxQuantity)
			if err := s.serviceRepo.Update(existing); err != nil {
				log.Printf("[Catalog sync] update service %d: %v", existing.ID, err)
				res.Errors++
				continue
			}
			res.Updated++
			continue
		}
		svc := &models.Service{
			Platform:     p,
			ServiceType:  t,
			Name:         item.Name,
			JapServiceID: japID,
			BasePrice:    item.RateFloat(),
			MinQuantity:  atoiDefault(item.Min, 1),
			MaxQuantity:  atoiDefault(item.Max, 0),
			IsActive:     false, // new upstream services need pricing review before sale
		}
		if err := s.serviceRepo.Create(svc); err != nil {
			log.Printf("[Catalog sync] insert jap_service_id=%d: %v", japID, err)
			res.Errors++
			continue
		}
		res.Inserted++
	}
	log.Printf("[Catalog sync] fetched=%d updated=%d inserted=%d skipped=%d errors=%d",
		res.Fetched, res.Updated, res.Inserted, res.Skipped, res.Errors)
	return res, nil
}

// classifyUpstream infers platform and service type from the panel's category/name text.
func classifyUpstream(item smm.UpstreamService) (platform, serviceType string) {
	text := strings.ToLower(item.Category + " " + item.Name)
	switch {
	case strings.Contains(text, "instagram"):
		platform = domain.PlatformInstagram
	case strings.Contains(text, "tiktok"):
		platform = domain.PlatformTikTok
	case strings.Contains(text, "youtube"):
		platform = domain.PlatformYouTube
	}
	switch {
	case strings.Contains(text, "follower") || strings.Contains(text, "subscriber"):
		serviceType = domain.ServiceTypeFollowers
	case strings.Contains(text, "like"):
		serviceType = domain.ServiceTypeLikes
	case strings.Contains(text, "view"):
		serviceType = domain.ServiceTypeViews
	}
	return platform, serviceType
}

func atoiDefault(s string, fallback int) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return fallback
	}
	return n
}
