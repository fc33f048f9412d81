package validate

import (
	"sort"
	"strings"
)

const (
	ZoneLimaModerna = "Lima Moderna"
	ZoneLimaCentro  = "Lima Centro"
	ZoneLimaNorte   = "Lima Norte"
	ZoneLimaSur     = "Lima Sur"
	ZoneLimaEste    = "Lima Este"
	ZoneCallao      = "Callao"
	ZoneProvincia   = "Provincia"
)

type place struct {
	name string
	zone string
}

var places = []place{
	{"Miraflores", ZoneLimaModerna},
	{"San Isidro", ZoneLimaModerna},
	{"Barranco", ZoneLimaModerna},
	{"San Borja", ZoneLimaModerna},
	{"Santiago de Surco", ZoneLimaModerna},
	{"La Molina", ZoneLimaModerna},
	{"Surquillo", ZoneLimaModerna},
	{"Jesús María", ZoneLimaCentro},
	{"Lince", ZoneLimaCentro},
	{"Pueblo Libre", ZoneLimaCentro},
	{"Magdalena del Mar", ZoneLimaCentro},
	{"San Miguel", ZoneLimaCentro},
	{"Breña", ZoneLimaCentro},
	{"La Victoria", ZoneLimaCentro},
	{"Rímac", ZoneLimaCentro},
	{"Cercado de Lima", ZoneLimaCentro},
	{"San Luis", ZoneLimaCentro},
	{"Los Olivos", ZoneLimaNorte},
	{"Independencia", ZoneLimaNorte},
	{"San Martín de Porres", ZoneLimaNorte},
	{"Comas", ZoneLimaNorte},
	{"Carabayllo", ZoneLimaNorte},
	{"Puente Piedra", ZoneLimaNorte},
	{"Ancón", ZoneLimaNorte},
	{"Santa Rosa", ZoneLimaNorte},
	{"Villa El Salvador", ZoneLimaSur},
	{"San Juan de Miraflores", ZoneLimaSur},
	{"Villa María del Triunfo", ZoneLimaSur},
	{"Chorrillos", ZoneLimaSur},
	{"Lurín", ZoneLimaSur},
	{"Pachacámac", ZoneLimaSur},
	{"Punta Hermosa", ZoneLimaSur},
	{"Punta Negra", ZoneLimaSur},
	{"San Bartolo", ZoneLimaSur},
	{"Pucusana", ZoneLimaSur},
	{"Ate", ZoneLimaEste},
	{"Santa Anita", ZoneLimaEste},
	{"San Juan de Lurigancho", ZoneLimaEste},
	{"El Agustino", ZoneLimaEste},
	{"Lurigancho-Chosica", ZoneLimaEste},
	{"Chaclacayo", ZoneLimaEste},
	{"Cieneguilla", ZoneLimaEste},
	{"Callao", ZoneCallao},
	{"Bellavista", ZoneCallao},
	{"La Perla", ZoneCallao},
	{"La Punta", ZoneCallao},
	{"Ventanilla", ZoneCallao},
	{"Arequipa", ZoneProvincia},
	{"Trujillo", ZoneProvincia},
	{"Chiclayo", ZoneProvincia},
	{"Piura", ZoneProvincia},
	{"Cusco", ZoneProvincia},
	{"Ica", ZoneProvincia},
	{"Huancayo", ZoneProvincia},
	{"Tacna", ZoneProvincia},
}

// Zone names are accepted as a district-level answer.
var zoneNames = []string{ZoneLimaModerna, ZoneLimaCentro, ZoneLimaNorte, ZoneLimaSur, ZoneLimaEste}

var districtAliases = map[string]string{
	"surco":          "Santiago de Surco",
	"magdalena":      "Magdalena del Mar",
	"cercado":        "Cercado de Lima",
	"centro de lima": "Cercado de Lima",
	"sjl":            "San Juan de Lurigancho",
	"sjm":            "San Juan de Miraflores",
	"smp":            "San Martín de Porres",
	"ves":            "Villa El Salvador",
	"vmt":            "Villa María del Triunfo",
	"chosica":        "Lurigancho-Chosica",
	"lurigancho":     "Lurigancho-Chosica",
	"cuzco":          "Cusco",
	"jesus maria":    "Jesús María",
}

var gazetteer, zoneOf = func() (map[string]string, map[string]string) {
	g := make(map[string]string, len(places)+len(zoneNames)+len(districtAliases))
	z := make(map[string]string, len(places)+len(zoneNames))
	for _, p := range places {
		g[Fold(p.name)] = p.name
		z[p.name] = p.zone
	}
	for _, name := range zoneNames {
		g[Fold(name)] = name
		z[name] = name
	}
	for alias, name := range districtAliases {
		g[alias] = name
	}
	return g, z
}()

var districtPrefixes = []string{"distrito de ", "distrito ", "zona de ", "zona ", "en ", "por "}

// District resolves a district, Lima zone or major city to its canonical
// spelling. Unknown places are ambiguous: they may be real but we cannot
// tell which district the user means.
func District(raw string) Result {
	s := strings.Trim(Fold(raw), " .,;!")
	for _, p := range districtPrefixes {
		s = strings.TrimPrefix(s, p)
	}
	if name, ok := gazetteer[s]; ok {
		return valid(name)
	}
	return invalid(ReasonAmbiguous)
}

// FindDistrict scans free text for the longest known place name.
func FindDistrict(text string) (string, bool) {
	folded := " " + Fold(text) + " "
	for _, key := range gazetteerKeys {
		if strings.Contains(folded, " "+key+" ") ||
			strings.Contains(folded, " "+key+",") ||
			strings.Contains(folded, " "+key+".") {
			return gazetteer[key], true
		}
	}
	return "", false
}

// ZoneOf returns the zone of a canonical district, or "" when unknown.
func ZoneOf(district string) string {
	return zoneOf[district]
}

// Districts lists canonical place names in gazetteer order.
func Districts() []string {
	out := make([]string, 0, len(places))
	for _, p := range places {
		out = append(out, p.name)
	}
	return out
}

var gazetteerKeys = sortedByLengthDesc(gazetteer)

func sortedByLengthDesc(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
