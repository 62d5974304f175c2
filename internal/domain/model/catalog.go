package model

import (
	"sort"
)

// FuelTypeは、サブモデル(パワートレイン)の燃料種別です。
type FuelType string

const (
	FuelGasoline FuelType = "가솔린"
	FuelDiesel   FuelType = "디젤"
	FuelHybrid   FuelType = "하이브리드"
	FuelElectric FuelType = "전기"
	FuelHydrogen FuelType = "수소"
	FuelLPG      FuelType = "LPG"
)

// FuelTypesは、既知の燃料種別を表示順で返します。
func FuelTypes() []FuelType {
	return []FuelType{FuelGasoline, FuelDiesel, FuelHybrid, FuelElectric, FuelHydrogen, FuelLPG}
}

type Brand struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LogoURL  string `json:"logoUrl"`
	CarCount int    `json:"carCount,omitempty"`
}

type Grade struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Carは、generated-cars.jsonの車種サマリーです。IDは3つのドキュメントの結合キーです。
type Car struct {
	ID         string   `json:"id"`
	BrandID    string   `json:"brandId"`
	BrandName  string   `json:"brandName"`
	Name       string   `json:"name"`
	ImageURL   string   `json:"imageUrl"`
	StartPrice int64    `json:"startPrice"`
	Grades     []Grade  `json:"grades"`
	GradeCount int      `json:"gradeCount"`
	FuelType   FuelType `json:"fuelType,omitempty"`
}

type Trim struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Features []string `json:"features"`
}

type Option struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
}

type ColorImage struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Hex      string `json:"hex"`
	Price    int64  `json:"price"`
}

// CarDetailは、generated-car-details.jsonの1車種分のレコードです。
type CarDetail struct {
	Brand             string       `json:"brand"`
	Name              string       `json:"name"`
	ImageURL          string       `json:"imageUrl"`
	FuelType          FuelType     `json:"fuelType,omitempty"`
	Trims             []Trim       `json:"trims"`
	SelectableOptions []Option     `json:"selectableOptions"`
	ColorImages       []ColorImage `json:"colorImages"`
}

type SubModel struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	FuelType  FuelType `json:"fuelType"`
	IsDefault bool     `json:"isDefault,omitempty"`
	Trims     []Trim   `json:"trims,omitempty"`
}

type SubModelEntry struct {
	SubModels []SubModel `json:"subModels"`
}

// CarsDocumentは、generated-cars.jsonのトップレベル構造です。
type CarsDocument struct {
	Brands []Brand `json:"brands"`
	Cars   []Car   `json:"cars"`
}

// Catalogは、3つのJSONドキュメントを1つの論理ストアとして扱うスナップショットです。
// 変更はメモリ上で行い、永続化はリポジトリのPersistで一括して行います。
type Catalog struct {
	Brands    []Brand
	Cars      []Car
	Details   map[string]*CarDetail
	SubModels map[string]*SubModelEntry

	carIndex map[string]int
}

func NewCatalog(doc CarsDocument, details map[string]*CarDetail, subModels map[string]*SubModelEntry) *Catalog {
	if details == nil {
		details = map[string]*CarDetail{}
	}
	if subModels == nil {
		subModels = map[string]*SubModelEntry{}
	}
	c := &Catalog{
		Brands:    doc.Brands,
		Cars:      doc.Cars,
		Details:   details,
		SubModels: subModels,
	}
	c.Reindex()
	return c
}

// Reindexは、車種IDのインデックスを再構築します。IDが重複している場合は先頭が優先されます。
func (c *Catalog) Reindex() {
	c.carIndex = make(map[string]int, len(c.Cars))
	for i, car := range c.Cars {
		if _, ok := c.carIndex[car.ID]; !ok {
			c.carIndex[car.ID] = i
		}
	}
}

func (c *Catalog) FindCarByID(id string) (*Car, bool) {
	i, ok := c.carIndex[id]
	if !ok {
		return nil, false
	}
	return &c.Cars[i], true
}

func (c *Catalog) FindDetailByID(id string) (*CarDetail, bool) {
	d, ok := c.Details[id]
	return d, ok && d != nil
}

func (c *Catalog) FindSubModelByID(id string) (*SubModelEntry, bool) {
	s, ok := c.SubModels[id]
	return s, ok && s != nil
}

// UpsertCarは、車種サマリーを追加または置換し、格納先のポインタを返します。
func (c *Catalog) UpsertCar(car Car) *Car {
	if i, ok := c.carIndex[car.ID]; ok {
		c.Cars[i] = car
		return &c.Cars[i]
	}
	c.Cars = append(c.Cars, car)
	c.carIndex[car.ID] = len(c.Cars) - 1
	return &c.Cars[len(c.Cars)-1]
}

func (c *Catalog) FindBrandByID(id string) (*Brand, bool) {
	for i := range c.Brands {
		if c.Brands[i].ID == id {
			return &c.Brands[i], true
		}
	}
	return nil, false
}

// CarIDsは、サマリーに存在する車種IDを昇順で返します。
func (c *Catalog) CarIDs() []string {
	ids := make([]string, 0, len(c.carIndex))
	for id := range c.carIndex {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DetailIDsは、詳細ドキュメントのキーを昇順で返します。
func (c *Catalog) DetailIDs() []string {
	ids := make([]string, 0, len(c.Details))
	for id := range c.Details {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Documentは、永続化用にgenerated-cars.jsonの構造へ戻します。
func (c *Catalog) Document() CarsDocument {
	return CarsDocument{Brands: c.Brands, Cars: c.Cars}
}

// Cloneは、スナップショットのディープコピーを返します。
func (c *Catalog) Clone() *Catalog {
	brands := cloneSlice(c.Brands)
	cars := make([]Car, len(c.Cars))
	for i, car := range c.Cars {
		car.Grades = cloneSlice(car.Grades)
		cars[i] = car
	}
	details := make(map[string]*CarDetail, len(c.Details))
	for id, d := range c.Details {
		if d == nil {
			details[id] = nil
			continue
		}
		details[id] = d.Clone()
	}
	subModels := make(map[string]*SubModelEntry, len(c.SubModels))
	for id, s := range c.SubModels {
		if s == nil {
			subModels[id] = nil
			continue
		}
		entry := &SubModelEntry{SubModels: make([]SubModel, len(s.SubModels))}
		for i, sm := range s.SubModels {
			sm.Trims = cloneTrims(sm.Trims)
			entry.SubModels[i] = sm
		}
		subModels[id] = entry
	}
	return NewCatalog(CarsDocument{Brands: brands, Cars: cars}, details, subModels)
}

func (d *CarDetail) Clone() *CarDetail {
	cp := *d
	cp.Trims = cloneTrims(d.Trims)
	cp.SelectableOptions = cloneSlice(d.SelectableOptions)
	cp.ColorImages = cloneSlice(d.ColorImages)
	return &cp
}

func cloneTrims(trims []Trim) []Trim {
	if trims == nil {
		return nil
	}
	out := make([]Trim, len(trims))
	for i, t := range trims {
		t.Features = cloneSlice(t.Features)
		out[i] = t
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// MinTrimPriceは、価格のあるトリムのうち最小の価格を返します。価格0のトリムは有効な価格が無いものとして除きます。
// 価格のあるトリムが無い場合はfalseです。
func MinTrimPrice(trims []Trim) (int64, bool) {
	var lowest int64
	found := false
	for _, t := range trims {
		if t.Price <= 0 {
			continue
		}
		if !found || t.Price < lowest {
			lowest = t.Price
			found = true
		}
	}
	return lowest, found
}

// GradesFromTrimsは、詳細トリムからサマリー用のグレード一覧を導出します。
func GradesFromTrims(trims []Trim) []Grade {
	grades := make([]Grade, 0, len(trims))
	for _, t := range trims {
		grades = append(grades, Grade{Name: t.Name, Price: t.Price})
	}
	return grades
}
