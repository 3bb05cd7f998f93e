package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return &Catalog{
		Products: []*Product{
			{
				ProductID:   "kurban_goat",
				AnimalType:  AnimalTypeGoat,
				ServiceType: ServiceTypeKurban,
				BasePrice:   dec("200"),
				Variants: []WeightVariant{
					{Weight: dec("25"), Price: dec("0")},
					{Weight: dec("35"), Price: dec("50")},
					{Weight: dec("45"), Price: dec("100")},
				},
			},
			{
				ProductID:   "kurban_cow",
				AnimalType:  AnimalTypeCow,
				ServiceType: ServiceTypeKurban,
				BasePrice:   dec("1200"),
				Variants: []WeightVariant{
					{Weight: dec("250"), Price: dec("0")},
					{Weight: dec("350"), Price: dec("400")},
				},
			},
			{
				ProductID:   "aqiqah_goat_m",
				AnimalType:  AnimalTypeGoat,
				ServiceType: ServiceTypeAqiqah,
				BasePrice:   dec("220"),
				Variants: []WeightVariant{
					{Weight: dec("25"), Price: dec("0")},
					{Weight: dec("30"), Price: dec("30")},
				},
			},
		},
		Locations: []Location{
			{LocationID: "muaisim", Name: "Rumah Potong Hewan Al-Muaisim", AdditionalPrice: dec("50")},
			{LocationID: "haram", Name: "Sekitar Masjidil Haram", AdditionalPrice: dec("100")},
			{LocationID: "makkah_city", Name: "Wilayah Kota Mekkah", AdditionalPrice: decimal.Zero},
		},
	}
}

func newTestSelection(t *testing.T) *Selection {
	t.Helper()
	s, err := NewSelection(testCatalog())
	require.NoError(t, err)
	return s
}

func TestNewSelectionInitialState(t *testing.T) {
	s := newTestSelection(t)

	assert.Equal(t, ServiceTypeKurban, s.ServiceType())
	require.NotNil(t, s.Product())
	assert.Equal(t, "kurban_goat", s.Product().ProductID)
	assert.Equal(t, 0, s.VariantIndex())
	assert.Equal(t, "muaisim", s.LocationID())
	assert.Equal(t, []string{""}, s.Beneficiaries())
	assert.Len(t, s.AvailableProducts(), 2)
}

func TestNewSelectionRequiresLocations(t *testing.T) {
	_, err := NewSelection(&Catalog{})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = NewSelection(nil)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestSetServiceTypeResetsProductAndVariant(t *testing.T) {
	s := newTestSelection(t)
	require.NoError(t, s.SetProduct("kurban_cow"))
	require.NoError(t, s.SetVariantIndex(1))
	require.NoError(t, s.SetLocation("haram"))
	require.NoError(t, s.SetBeneficiaryName(0, "Ahmad"))

	for _, service := range ServiceTypes() {
		require.NoError(t, s.SetServiceType(service))
		assert.Equal(t, 0, s.VariantIndex())
		if p := s.Product(); p != nil {
			assert.Equal(t, service, p.ServiceType)
		}
	}

	// location and beneficiaries survive service changes
	assert.Equal(t, "haram", s.LocationID())
	assert.Equal(t, []string{"Ahmad"}, s.Beneficiaries())
}

func TestSetServiceTypeWithoutProducts(t *testing.T) {
	s := newTestSelection(t)

	require.NoError(t, s.SetServiceType(ServiceTypeDam))
	assert.Nil(t, s.Product())
	assert.Equal(t, 0, s.VariantIndex())

	_, err := s.BasePrice()
	assert.ErrorIs(t, err, ErrInvalidSelection)

	err = s.SetVariantIndex(0)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestSetServiceTypeUnknown(t *testing.T) {
	s := newTestSelection(t)
	err := s.SetServiceType(ServiceType("zakat"))
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Equal(t, ServiceTypeKurban, s.ServiceType())
}

func TestSetProduct(t *testing.T) {
	s := newTestSelection(t)
	require.NoError(t, s.SetVariantIndex(2))

	require.NoError(t, s.SetProduct("kurban_cow"))
	assert.Equal(t, "kurban_cow", s.Product().ProductID)
	assert.Equal(t, 0, s.VariantIndex())

	err := s.SetProduct("aqiqah_goat_m")
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Equal(t, "kurban_cow", s.Product().ProductID)

	err = s.SetProduct("missing")
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestSetVariantIndexBounds(t *testing.T) {
	s := newTestSelection(t)

	for _, i := range []int{-1, 3, 100} {
		err := s.SetVariantIndex(i)
		assert.ErrorIs(t, err, ErrInvalidSelection, "index %d", i)
	}
	assert.Equal(t, 0, s.VariantIndex())

	require.NoError(t, s.SetVariantIndex(2))
	assert.Equal(t, 2, s.VariantIndex())
}

func TestSetLocation(t *testing.T) {
	s := newTestSelection(t)

	require.NoError(t, s.SetLocation("makkah_city"))
	assert.Equal(t, "makkah_city", s.LocationID())

	err := s.SetLocation("madinah")
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Equal(t, "makkah_city", s.LocationID())
}

func TestBeneficiaryListBounds(t *testing.T) {
	s := newTestSelection(t)

	for i := 0; i < 20; i++ {
		if err := s.AddBeneficiary(); err != nil {
			assert.ErrorIs(t, err, ErrLimitReached)
		}
		assert.LessOrEqual(t, len(s.Beneficiaries()), MaxBeneficiaries)
	}
	assert.Len(t, s.Beneficiaries(), MaxBeneficiaries)
	assert.ErrorIs(t, s.AddBeneficiary(), ErrLimitReached)

	for i := 0; i < 20; i++ {
		_ = s.RemoveBeneficiary(0)
		assert.GreaterOrEqual(t, len(s.Beneficiaries()), MinBeneficiaries)
	}
	assert.Len(t, s.Beneficiaries(), MinBeneficiaries)
}

func TestRemoveLastBeneficiary(t *testing.T) {
	s := newTestSelection(t)
	require.NoError(t, s.SetBeneficiaryName(0, "Ahmad"))

	err := s.RemoveBeneficiary(0)
	assert.ErrorIs(t, err, ErrMinimumRequired)
	assert.Equal(t, []string{"Ahmad"}, s.Beneficiaries())
}

func TestEditBeneficiaries(t *testing.T) {
	s := newTestSelection(t)
	require.NoError(t, s.AddBeneficiary())
	require.NoError(t, s.AddBeneficiary())
	require.NoError(t, s.SetBeneficiaryName(0, "Ahmad"))
	require.NoError(t, s.SetBeneficiaryName(1, "Siti"))
	require.NoError(t, s.SetBeneficiaryName(2, "Umar"))

	require.NoError(t, s.RemoveBeneficiary(1))
	assert.Equal(t, []string{"Ahmad", "Umar"}, s.Beneficiaries())

	assert.ErrorIs(t, s.SetBeneficiaryName(2, "x"), ErrInvalidSelection)
	assert.ErrorIs(t, s.SetBeneficiaryName(-1, "x"), ErrInvalidSelection)
	assert.ErrorIs(t, s.RemoveBeneficiary(5), ErrInvalidSelection)

	names := s.Beneficiaries()
	names[0] = "changed"
	assert.Equal(t, "Ahmad", s.Beneficiaries()[0])
}

func TestSelectionQuote(t *testing.T) {
	s := newTestSelection(t)
	require.NoError(t, s.SetVariantIndex(1))

	base, err := s.BasePrice()
	require.NoError(t, err)
	assert.True(t, base.Equal(dec("300")))

	breakdown, err := s.Quote([]FeeRule{
		{Label: "Service Fee", Kind: FeeKindFixed, Value: dec("10")},
		{Label: "Processing & Logistics", Kind: FeeKindPercentage, Value: dec("2.5")},
	})
	require.NoError(t, err)
	assert.True(t, breakdown.GrandTotal.Equal(dec("317.5")))
}

func TestRebind(t *testing.T) {
	s := newTestSelection(t)
	require.NoError(t, s.SetProduct("kurban_cow"))
	require.NoError(t, s.SetVariantIndex(1))
	require.NoError(t, s.SetLocation("haram"))

	t.Run("unchanged catalog", func(t *testing.T) {
		reset, err := s.Rebind(testCatalog())
		require.NoError(t, err)
		assert.False(t, reset)
		assert.Equal(t, "kurban_cow", s.Product().ProductID)
		assert.Equal(t, 1, s.VariantIndex())
	})

	t.Run("variant removed", func(t *testing.T) {
		c := testCatalog()
		c.Products[1].Variants = c.Products[1].Variants[:1]
		reset, err := s.Rebind(c)
		require.NoError(t, err)
		assert.True(t, reset)
		assert.Equal(t, 0, s.VariantIndex())
	})

	t.Run("product and location removed", func(t *testing.T) {
		c := testCatalog()
		c.Products = append(c.Products[:1], c.Products[2:]...)
		c.Locations = c.Locations[2:]
		reset, err := s.Rebind(c)
		require.NoError(t, err)
		assert.True(t, reset)
		assert.Equal(t, "kurban_goat", s.Product().ProductID)
		assert.Equal(t, "makkah_city", s.LocationID())
	})

	t.Run("empty catalog", func(t *testing.T) {
		_, err := s.Rebind(&Catalog{})
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})
}

func TestCloneIsIndependent(t *testing.T) {
	s := newTestSelection(t)
	require.NoError(t, s.SetBeneficiaryName(0, "Ahmad"))

	c := s.Clone()
	require.NoError(t, c.SetProduct("kurban_cow"))
	require.NoError(t, c.SetBeneficiaryName(0, "Umar"))
	require.NoError(t, c.AddBeneficiary())

	assert.Equal(t, "kurban_goat", s.Product().ProductID)
	assert.Equal(t, []string{"Ahmad"}, s.Beneficiaries())
	assert.Equal(t, "kurban_cow", c.Product().ProductID)
	assert.Equal(t, []string{"Umar", ""}, c.Beneficiaries())
}
