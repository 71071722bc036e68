package service

import (
	"context"

	"travelwatch/internal/domain"
	"travelwatch/internal/security"
)

type AuthServiceInterface interface {
	Signup(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	CurrentUser(ctx context.Context, claims *security.Claims) (*domain.User, error)
	GoogleLoginURL(state string) string
	LoginWithGoogleCode(ctx context.Context, code string) (*LoginResult, error)
}

type RecordServiceInterface interface {
	Save(ctx context.Context, in *RecordInput) (*domain.Record, error)
	List(ctx context.Context) ([]domain.Record, error)
	Update(ctx context.Context, id string, in *RecordInput) (*domain.Record, error)
	Delete(ctx context.Context, id string) error
}

type UpstreamClientInterface interface {
	CovidSnapshot(ctx context.Context, country string) (*CovidSnapshot, error)
	TravelAdvisory(ctx context.Context, country string) (*TravelAdvisory, error)
}
