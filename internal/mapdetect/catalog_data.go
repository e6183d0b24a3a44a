package mapdetect

// defaultObjectives is the objective table in declaration order. Order is
// load-bearing: equal scores rank by position in this list.
var defaultObjectives = []ObjectiveEntry{
	{Objective: "Enter Draculas Castle and stop his final ritual Rescue the sealed Ratatoskr", Label: "Central Park Attack"},
	{Objective: "Enter Draculas Castle and stop his final ritual Stop Draculas final ritual", Label: "Central Park Attack"},
	{Objective: "Use the Montesi Formula to eliminate all the vampires Prevent Ratatoskr from being rescued", Label: "Central Park Defence"},
	{Objective: "Use the Montesi Formula to eliminate all the vampires Get the Montesi Formula off Ratatoskr", Label: "Central Park Defence"},
	{Objective: "Help the Statue of Bast Return to Its Place Rescue the Statue of Bast Sealed by the Vibrani Chronovium", Label: "Hall of Djalia Attack"},
	{Objective: "Help the Statue of Bast Return to Its Place Escort the Statue to the Meditation Chamber", Label: "Hall of Djalia Attack"},
	{Objective: "Prevent the Statue of Bast From Returning to Its Place Prevent the Statue of Bast From Being Rescued", Label: "Hall of Djalia Defence"},
	{Objective: "Prevent the Statue of Bast From Returning to Its Place Prevent the Statue From Reaching the Meditation Chamber", Label: "Hall of Djalia Defence"},
	{Objective: "Help Spider Zero Return to the Spider Islands Rescue Spider Zero from the Force Field Prison", Label: "Shinshibuya Attack"},
	{Objective: "Help Spider Zero Return to the Spider Islands Escort Spider Zero to Budokan", Label: "Shinshibuya Attack"},
	{Objective: "Stop Spider Zero from Returning to the Spider Islands Stop Spider Zero from Being Rescued", Label: "Shinshibuya Defence"},
	{Objective: "Stop Spider Zero from Returning to the Spider Islands Stop Spider Zero from reaching Budokan", Label: "Shinshibuya Defence"},
	{Objective: "Escort Knulls Essence to the Underground Prepare to Capture Knulls Essence", Label: "Symbiotic Surface Attack"},
	{Objective: "Escort Knulls Essence to the Underground Go Underground and Destroy Knull with Knulls Essence", Label: "Symbiotic Surface Attack"},
	{Objective: "Stop Knulls Essence from Going Underground Stop the Explosion of Knulls Essence to Prevent Kn", Label: "Symbiotic Surface Defence"},
	{Objective: "Stop Knulls Essence from Going Underground Defend Knulls Essence", Label: "Symbiotic Surface Defence"},
	{Objective: "Help HERBIE scan all the lost pages of the Darkhold Escort HERBIE to Avengers Tower", Label: "Midtown Attack"},
	{Objective: "Prevent HERBIE from scanning all the lost Prevent HERBIE from reaching the Avengers Tower", Label: "Midtown Defence"},
	{Objective: "Help Spider Zero Repair the Web of Life and Destiny Escort Spider Zero to the Web of Life and Destiny", Label: "Spider Islands Attack"},
	{Objective: "Help the Master Weaver Save the Web of Life and Des Stop Spider Zero from reaching the Web of Life and Destiny", Label: "Spider Islands Defence"},
	{Objective: "Destroy Lokis Yggdrasill Tapping Device Escort Jarnbjorn to Yggdrasill", Label: "Yggdrasill Path Attack"},
	{Objective: "Stop the Yggdrasill Tapping Device from Being Destro Prevent Jarnbjorn from Reaching Yggdrasill", Label: "Yggdrasill Path Defence"},
	{Objective: "Capture the Bifrost Garden Prepare to Head to the Bifrost Garden", Label: "Royale Palace Bifrost Garden"},
	{Objective: "Capture the Bifrost Garden Prepare to Capture the Bifrost Garden", Label: "Royale Palace Bifrost Garden"},
	{Objective: "Capture the Bifrost Garden Defend the Bifrost Garden", Label: "Royale Palace Bifrost Garden"},
	{Objective: "Capture the Bifrost Garden Reclaim the Bifrost Garden", Label: "Royale Palace Bifrost Garden"},
	{Objective: "Capture Odins Archive Prepare to Head to Odins Archive", Label: "Royale Palace Odins Archive"},
	{Objective: "Capture Odins Archive Prepare to Capture Odins Archive", Label: "Royale Palace Odins Archive"},
	{Objective: "Capture Odins Archive Defend Odins Archive", Label: "Royale Palace Odins Archive"},
	{Objective: "Capture Odins Archive Reclaim Odins Archive", Label: "Royale Palace Odins Archive"},
	{Objective: "Capture the Throne Room Prepare to Head to the Throne Room", Label: "Royale Palace Throne Room"},
	{Objective: "Capture the Throne Room Prepare to Capture the Throne Room", Label: "Royale Palace Throne Room"},
	{Objective: "Capture the Throne Room Defend the Throne Room", Label: "Royale Palace Throne Room"},
	{Objective: "Capture the Throne Room Reclaim the Throne Room", Label: "Royale Palace Throne Room"},
	{Objective: "Capture Eldritch Monument Prepare to Head to Eldritch Monument", Label: "Hells Heaven Eldritch Monument"},
	{Objective: "Capture Eldritch Monument Prepare to Capture Eldritch Monument", Label: "Hells Heaven Eldritch Monument"},
	{Objective: "Capture Eldritch Monument Defend Eldritch Monument", Label: "Hells Heaven Eldritch Monument"},
	{Objective: "Capture Eldritch Monument Reclaim Eldritch Monument", Label: "Hells Heaven Eldritch Monument"},
	{Objective: "Capture Frozen Airfield Prepare to Head to Frozen Monitoring Station", Label: "Hells Heaven Frozen Airfield"},
	{Objective: "Capture Frozen Airfield Prepare to Capture Frozen Monitoring Station", Label: "Hells Heaven Frozen Airfield"},
	{Objective: "Capture Frozen Airfield Defend Frozen Monitoring Station", Label: "Hells Heaven Frozen Airfield"},
	{Objective: "Capture Frozen Airfield Reclaim Frozen Monitoring Station", Label: "Hells Heaven Frozen Airfield"},
	{Objective: "Capture Super Soldier Factory Prepare to Head to Super Soldier Laboratory", Label: "Hells Heaven Super Soldier Factory"},
	{Objective: "Capture Super Soldier Factory Prepare to Capture Super Soldier Laboratory", Label: "Hells Heaven Super Soldier Factory"},
	{Objective: "Capture Super Soldier Factory Defend Super Soldier Laboratory", Label: "Hells Heaven Super Soldier Factory"},
	{Objective: "Capture Super Soldier Factory Reclaim Super Soldier Laboratory", Label: "Hells Heaven Super Soldier Factory"},
	{Objective: "Capture the Chrono Vibranium Experiment Area Prepare to Head to the Chrono Vibranium Experiment Area", Label: "Brinin Tchalla Experiment Area"},
	{Objective: "Capture the Chrono Vibranium Experiment Area Prepare to Capture the Chrono Vibranium Experiment Area", Label: "Brinin Tchalla Experiment Area"},
	{Objective: "Capture the Chrono Vibranium Experiment Area Defend the Chrono Vibranium Experiment Area", Label: "Brinin Tchalla Experiment Area"},
	{Objective: "Capture the Chrono Vibranium Experiment Area Reclaim the Chrono Vibranium Experiment Area", Label: "Brinin Tchalla Experiment Area"},
	{Objective: "Capture the Imperial Dueling Ground Prepare to Head to the Imperial Dueling Ground", Label: "Brinin Tchalla Imperial Dueling Ground"},
	{Objective: "Capture the Imperial Dueling Ground Prepare to Capture the Imperial Dueling Ground", Label: "Brinin Tchalla Imperial Dueling Ground"},
	{Objective: "Capture the Imperial Dueling Ground Defend the Imperial Dueling Ground", Label: "Brinin Tchalla Imperial Dueling Ground"},
	{Objective: "Capture the Imperial Dueling Ground Reclaim the Imperial Dueling Ground", Label: "Brinin Tchalla Imperial Dueling Ground"},
	{Objective: "Capture the Stellar Spaceport Prepare to Head to the Stellar Spaceport", Label: "Brinin Tchalla Stellar Spaceport"},
	{Objective: "Capture the Stellar Spaceport Prepare to Capture the Stellar Spaceport", Label: "Brinin Tchalla Stellar Spaceport"},
	{Objective: "Capture the Stellar Spaceport Defend the Stellar Spaceport", Label: "Brinin Tchalla Stellar Spaceport"},
	{Objective: "Capture the Stellar Spaceport Reclaim the Stellar Spaceport", Label: "Brinin Tchalla Stellar Spaceport"},
	{Objective: "Capture the Cradle Stop Ultron From Taking Cerebro Prepare to Head to the Cradle", Label: "Krokoa Cradle"},
	{Objective: "Capture the Cradle Stop Ultron From Taking Cerebro Prepare to Capture the Cradle", Label: "Krokoa Cradle"},
	{Objective: "Capture the Cradle Stop Ultron From Taking Cerebro Defend the Cradle", Label: "Krokoa Cradle"},
	{Objective: "Capture the Cradle Stop Ultron From Taking Cerebro Reclaim the Cradle", Label: "Krokoa Cradle"},
	{Objective: "Capture the Carousel Stop Ultrons Invasion of Krakoa Prepare to Head to the Carousel", Label: "Krokoa Carousel"},
	{Objective: "Capture the Carousel Stop Ultrons Invasion of Krakoa Prepare to Capture the Carousel", Label: "Krokoa Carousel"},
	{Objective: "Capture the Carousel Stop Ultrons Invasion of Krakoa Defend the Carousel", Label: "Krokoa Carousel"},
	{Objective: "Capture the Carousel Stop Ultrons Invasion of Krakoa Reclaim the Carousel", Label: "Krokoa Carousel"},
	{Objective: "Capture the Grove Stop Ultron From Infecting Krakoa Prepare to Head to The Grove", Label: "Krokoa Grove"},
	{Objective: "Capture the Grove Stop Ultron From Infecting Krakoa Prepare to Capture The Grove", Label: "Krokoa Grove"},
	{Objective: "Capture the Grove Stop Ultron From Infecting Krakoa Defend The Grove", Label: "Krokoa Grove"},
	{Objective: "Capture the Grove Stop Ultron From Infecting Krakoa Reclaim The Grove", Label: "Krokoa Grove"},
	{Objective: "Be the first team to reach 16 points Strive to eliminate more enemies", Label: "Doom match"},
}

// defaultSuperHighValue words are map proper nouns and phrase fragments that
// rarely occur outside one objective.
var defaultSuperHighValue = []string{
	"draculas", "ratatoskr", "castle", "ritual", "final", "montesi", "vampires", "darkhold",
	"herbie", "tower", "chronovium", "vibrani", "by", "off", "prison", "field", "force",
	"knull", "kn", "explosion", "scan", "pages", "scanning", "repair", "master", "weaver",
	"des", "save", "lokis", "destro", "garden", "bifrost", "archive", "odins", "room",
	"throne", "eldritch", "monument", "station", "frozen", "airfield", "monitoring",
	"factory", "laboratory", "soldier", "super", "chrono", "experiment", "area",
	"vibranium", "ground", "imperial", "dueling", "spaceport", "stellar", "cerebro",
	"taking", "cradle", "ultrons", "invasion", "carousel", "infecting", "grove", "budokan",
	"jarnbjorn", "yggdrasill", "device", "tapping", "strive", "team",
}

// defaultHighValue words are moderately distinctive objective vocabulary.
var defaultHighValue = []string{
	"use", "eliminate", "formula", "sealed", "return", "place", "bast", "meditation", "its",
	"chamber", "statue", "returning", "islands", "destroy", "essence", "underground",
	"avengers", "lost", "life", "destiny", "web", "jarnbjorn", "yggdrasill", "tapping",
	"device", "ultron", "krakoa", "rescue", "rescued", "being", "tower", "zero", "spider",
}
