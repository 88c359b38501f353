// 包 store: 提供与 PostgreSQL 的数据访问层，负责房源记录的读取与写入
package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"nyumbatz/internal/logger"
	"nyumbatz/internal/property"
)

// Store: 数据库访问入口，持有连接池并提供房源查询接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// All: 拉取全部房源，用于重建搜索索引
// 背景：索引重建是低频整表扫描，一次取全量比分页往返更省；行数受单城市房源规模约束
func (s *Store) All(ctx context.Context) ([]property.Property, error) {
	logger.L().Debug("store_load_all_begin")
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, city, amenities, lat, lng, price, bedrooms FROM _ny_properties`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []property.Property
	for rows.Next() {
		var p property.Property
		if err := rows.Scan(&p.ID, &p.Title, &p.City, pq.Array(&p.Amenities), &p.Lat, &p.Lng, &p.Price, &p.Bedrooms); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("store_load_all_done", "count", len(out))
	return out, nil
}

// GetByID: 按 id 查询单条房源；不存在返回 nil 而非错误
func (s *Store) GetByID(ctx context.Context, id string) (*property.Property, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, city, amenities, lat, lng, price, bedrooms FROM _ny_properties WHERE id=$1`, id)
	var p property.Property
	if err := row.Scan(&p.ID, &p.Title, &p.City, pq.Array(&p.Amenities), &p.Lat, &p.Lng, &p.Price, &p.Bedrooms); err != nil {
		if err == sql.ErrNoRows {
			logger.L().Debug("store_get_miss", "id", id)
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM _ny_properties`).Scan(&n)
	return n, err
}

// Upsert: 写入或更新一条房源（种子导入与后台维护使用）
func (s *Store) Upsert(ctx context.Context, p property.Property) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO _ny_properties(id, title, city, amenities, lat, lng, price, bedrooms, updated_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,now())
        ON CONFLICT (id) DO UPDATE SET
            title=EXCLUDED.title, city=EXCLUDED.city, amenities=EXCLUDED.amenities,
            lat=EXCLUDED.lat, lng=EXCLUDED.lng, price=EXCLUDED.price,
            bedrooms=EXCLUDED.bedrooms, updated_at=now()`,
		p.ID, p.Title, p.City, pq.Array(p.Amenities), p.Lat, p.Lng, p.Price, p.Bedrooms)
	return err
}
