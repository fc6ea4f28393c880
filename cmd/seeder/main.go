// Package main 数据库种子工具
//
// 用法：
//
//	go run ./cmd/seeder -i    # 导入 _data/*.json
//	go run ./cmd/seeder -d    # 清空业务集合
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"bootcamp-admin/internal/apiserver/auth"
	"bootcamp-admin/internal/config"
	"bootcamp-admin/internal/shared/model"
	"bootcamp-admin/internal/shared/storage/mongostore"
)

// seedUser 种子文件里的用户带明文密码，导入时哈希
type seedUser struct {
	model.User
	Password string `json:"password"`
}

func main() {
	importData := flag.Bool("i", false, "import seed data")
	destroyData := flag.Bool("d", false, "destroy all data")
	dataDir := flag.String("data", "_data", "seed data directory")
	flag.Parse()

	if *importData == *destroyData {
		log.Fatal("specify exactly one of -i or -d")
	}

	cfg := config.Load()
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if *destroyData {
		if err := store.DropCollections(ctx); err != nil {
			log.Fatalf("Failed to destroy data: %v", err)
		}
		log.Println("Data destroyed")
		return
	}

	if err := seed(ctx, store, *dataDir); err != nil {
		log.Fatalf("Failed to import data: %v", err)
	}
	log.Println("Data imported")
}

func seed(ctx context.Context, store *mongostore.Store, dir string) error {
	var users []seedUser
	if err := loadJSON(filepath.Join(dir, "users.json"), &users); err != nil {
		return err
	}
	now := time.Now()
	for _, u := range users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		if u.ID == "" {
			u.ID = model.NewID("user")
		}
		u.CreatedAt, u.UpdatedAt = now, now
		if err := store.CreateUser(ctx, &u.User); err != nil {
			return err
		}
	}
	log.Printf("[seeder] imported %d users", len(users))

	var bootcamps []model.Bootcamp
	if err := loadJSON(filepath.Join(dir, "bootcamps.json"), &bootcamps); err != nil {
		return err
	}
	for i := range bootcamps {
		b := &bootcamps[i]
		if b.ID == "" {
			b.ID = model.NewID("bootcamp")
		}
		b.CreatedAt, b.UpdatedAt = now, now
		if err := store.CreateBootcamp(ctx, b); err != nil {
			return err
		}
	}
	log.Printf("[seeder] imported %d bootcamps", len(bootcamps))

	var courses []model.Course
	if err := loadJSON(filepath.Join(dir, "courses.json"), &courses); err != nil {
		return err
	}
	for i := range courses {
		c := &courses[i]
		if c.ID == "" {
			c.ID = model.NewID("course")
		}
		c.CreatedAt, c.UpdatedAt = now, now
		if err := store.CreateCourse(ctx, c); err != nil {
			return err
		}
	}
	log.Printf("[seeder] imported %d courses", len(courses))

	return nil
}

func loadJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
