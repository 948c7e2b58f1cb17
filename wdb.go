package noteserver

import (
	"path"

	"github.com/fqx-eng/noteserver/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Wdb struct {
	Db *gorm.DB
}

func NewMysqlDb(dsn string) *Wdb {
	logLevel := logger.Error
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logLevel),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect mysql db success")
	return &Wdb{Db: db}
}

func NewSqliteDb(dbDir string) *Wdb {
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, "noteserver.sqlite")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect sqlite db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.NoteRecord{}, &schema.SettlementRecord{})
}

func (w *Wdb) InsertNote(note schema.NoteRecord) error {
	return w.Db.Create(&note).Error
}

func (w *Wdb) GetNote(mint string) (schema.NoteRecord, error) {
	res := schema.NoteRecord{}
	err := w.Db.Where("mint = ?", mint).First(&res).Error
	if err == gorm.ErrRecordNotFound {
		return res, ErrNotExist
	}
	return res, err
}

func (w *Wdb) GetNotes(limit int) ([]schema.NoteRecord, error) {
	res := make([]schema.NoteRecord, 0, limit)
	err := w.Db.Order("id desc").Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) UpdateNoteStatus(mint string, status string) error {
	return w.Db.Model(&schema.NoteRecord{}).Where("mint = ?", mint).Update("status", status).Error
}

func (w *Wdb) InsertSettlement(rec schema.SettlementRecord) error {
	return w.Db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

func (w *Wdb) GetSettlements(mint string) ([]schema.SettlementRecord, error) {
	res := make([]schema.SettlementRecord, 0)
	err := w.Db.Where("mint = ?", mint).Order("id desc").Find(&res).Error
	return res, err
}
