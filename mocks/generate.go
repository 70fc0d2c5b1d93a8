package mocks

//go:generate mockgen -destination=./mock_gateway.go -package=mocks github.com/rxtech-lab/argo-signals/internal/trading/gateway Gateway,Session,QuoteSource
