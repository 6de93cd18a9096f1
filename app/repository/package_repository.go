package repository

import (
	"github.com/ManuelReschke/NetPortal/app/models"
	"gorm.io/gorm"
)

type packageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepository{db: db}
}

func (r *packageRepository) GetByID(id uint) (*models.Package, error) {
	var pkg models.Package
	if err := r.db.First(&pkg, id).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ListActive returns the purchasable packages, cheapest first.
func (r *packageRepository) ListActive() ([]models.Package, error) {
	var pkgs []models.Package
	err := r.db.Where("status = ?", true).Order("price ASC, id ASC").Find(&pkgs).Error
	return pkgs, err
}

func (r *packageRepository) BillsByUser(userID uint) ([]models.BillPaid, error) {
	var bills []models.BillPaid
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&bills).Error
	return bills, err
}

func (r *packageRepository) OrdersByUser(userID uint) ([]models.PackageOrder, error) {
	var orders []models.PackageOrder
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&orders).Error
	return orders, err
}

func (r *packageRepository) BillByInvoice(userID uint, invoiceNumber string) (*models.BillPaid, error) {
	var bill models.BillPaid
	err := r.db.Where("user_id = ? AND invoice_number = ?", userID, invoiceNumber).First(&bill).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *packageRepository) OrderByInvoice(userID uint, invoiceNumber string) (*models.PackageOrder, error) {
	var order models.PackageOrder
	err := r.db.Where("user_id = ? AND invoice_number = ?", userID, invoiceNumber).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *packageRepository) RecentBills(limit int) ([]models.BillPaid, error) {
	var bills []models.BillPaid
	err := r.db.Order("id DESC").Limit(limit).Find(&bills).Error
	return bills, err
}
