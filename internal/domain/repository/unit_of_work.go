package repository

// TxRepositories repositorios atados a una misma transacción (unidad de trabajo).
type TxRepositories struct {
	Sales      SaleRepository
	Returns    ReturnRepository
	Products   ProductRepository
	Alerts     StockAlertRepository
	Movements  StockMovementRepository
	Promotions PromotionRepository
}
