package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "restaurant":
		handleRestaurant(args)
	case "table":
		handleTable(args)
	case "reservation":
		handleReservation(args)
	case "availability":
		handleAvailability(args)
	case "hold":
		handleHold(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleRestaurant(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve restaurant <create|list|get|delete|activate|deactivate>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "create":
		createRestaurant(args[1:])
	case "list":
		listRestaurants(args[1:])
	case "get":
		getRestaurant(args[1:])
	case "delete":
		deleteRestaurant(args[1:])
	case "activate":
		setRestaurantActive(args[1:], true)
	case "deactivate":
		setRestaurantActive(args[1:], false)
	default:
		fmt.Printf("unknown restaurant command: %s\n", subCmd)
	}
}

func handleTable(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve table <add|availability>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "add":
		addTable(args[1:])
	case "availability":
		setTableAvailability(args[1:])
	default:
		fmt.Printf("unknown table command: %s\n", subCmd)
	}
}

func handleReservation(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve reservation <book|confirm|cancel|complete>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "book":
		bookReservation(args[1:])
	case "confirm", "cancel", "complete":
		transitionReservation(subCmd, args[1:])
	default:
		fmt.Printf("unknown reservation command: %s\n", subCmd)
	}
}

func handleAvailability(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve availability <search|rates|accommodate>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "search":
		searchAvailability(args[1:])
	case "rates":
		showRates(args[1:])
	case "accommodate":
		checkAccommodate(args[1:])
	default:
		fmt.Printf("unknown availability command: %s\n", subCmd)
	}
}

func handleHold(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve hold <place|list|release>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "place":
		placeHold(args[1:])
	case "list":
		listHolds(args[1:])
	case "release":
		releaseHold(args[1:])
	default:
		fmt.Printf("unknown hold command: %s\n", subCmd)
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "staff email")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	restaurant := fs.String("restaurant", "", "restaurant ID (optional, binds the account)")

	fs.Parse(args)

	if *email == "" || *username == "" || *password == "" {
		fmt.Println("Error: email, username, and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"email":    *email,
		"username": *username,
		"password": *password,
	}
	if *restaurant != "" {
		payload["restaurantId"] = *restaurant
	}

	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Staff account registered: %s\n", *email)
		if token, ok := result["token"].(string); ok {
			saveToken(token)
		}
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result)
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "staff email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// Restaurant commands
func createRestaurant(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "restaurant name")
	address := fs.String("address", "", "street address")
	phone := fs.String("phone", "", "contact phone")
	email := fs.String("email", "", "contact email")
	open := fs.String("open", "10:00", "opening time (HH:MM)")
	closeAt := fs.String("close", "23:00", "closing time (HH:MM)")

	fs.Parse(args)

	if *name == "" || *address == "" {
		fmt.Println("Error: name and address are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"name":      *name,
		"address":   *address,
		"phone":     *phone,
		"email":     *email,
		"openTime":  *open,
		"closeTime": *closeAt,
	}
	result, status := postJSON("/restaurants", payload)
	if status == 201 {
		fmt.Printf("✓ Restaurant created: %v\n", result["id"])
	} else {
		fmt.Printf("✗ Create failed: %v\n", result)
	}
}

func listRestaurants(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/restaurants", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var restaurants []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&restaurants)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tACTIVE\tCAPACITY")
	for _, r := range restaurants {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", r["id"], r["name"], r["active"], r["capacity"])
	}
	w.Flush()
}

func getRestaurant(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve restaurant get <restaurant-id>")
		return
	}
	req, _ := http.NewRequest("GET", getAPIURL()+"/restaurants/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(pretty))
}

func deleteRestaurant(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve restaurant delete <restaurant-id>")
		return
	}
	req, _ := http.NewRequest("DELETE", getAPIURL()+"/restaurants/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 204 || resp.StatusCode == 200 {
		fmt.Println("✓ Restaurant deleted")
	} else {
		fmt.Printf("✗ Delete failed (status %d)\n", resp.StatusCode)
	}
}

func setRestaurantActive(args []string, active bool) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve restaurant activate|deactivate <restaurant-id>")
		return
	}
	result, status := putJSON("/restaurants/"+args[0]+"/active", map[string]bool{"active": active})
	if status >= 200 && status < 300 {
		fmt.Printf("✓ Restaurant active=%v\n", active)
	} else {
		fmt.Printf("✗ Update failed: %v\n", result)
	}
}

// Table commands
func addTable(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	restaurant := fs.String("restaurant", "", "restaurant ID")
	seats := fs.Int("seats", 4, "seat count (1-8)")
	location := fs.String("location", "indoor", "window|indoor|terrace|private_room")

	fs.Parse(args)

	if *restaurant == "" {
		fmt.Println("Error: restaurant is required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"seats":    *seats,
		"location": *location,
	}
	result, status := postJSON("/restaurants/"+*restaurant+"/tables", payload)
	if status == 201 {
		fmt.Printf("✓ Table %v added (%v seats, %v)\n", result["number"], result["seats"], result["location"])
	} else {
		fmt.Printf("✗ Add table failed: %v\n", result)
	}
}

func setTableAvailability(args []string) {
	fs := flag.NewFlagSet("availability", flag.ExitOnError)
	restaurant := fs.String("restaurant", "", "restaurant ID")
	table := fs.String("table", "", "table ID")
	available := fs.Bool("available", true, "availability flag")

	fs.Parse(args)

	if *restaurant == "" || *table == "" {
		fmt.Println("Error: restaurant and table are required")
		fs.PrintDefaults()
		return
	}

	path := "/restaurants/" + *restaurant + "/tables/" + *table + "/availability"
	result, status := putJSON(path, map[string]bool{"available": *available})
	if status >= 200 && status < 300 {
		fmt.Printf("✓ Table available=%v\n", *available)
	} else {
		fmt.Printf("✗ Update failed: %v\n", result)
	}
}

// Reservation commands
func bookReservation(args []string) {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	restaurant := fs.String("restaurant", "", "restaurant ID")
	table := fs.String("table", "", "table ID (optional, best fit when omitted)")
	date := fs.String("date", "", "reservation date (YYYY-MM-DD)")
	start := fs.String("start", "", "start time (HH:MM)")
	end := fs.String("end", "", "end time (HH:MM)")
	party := fs.Int("party", 2, "party size")
	name := fs.String("name", "", "customer name")
	phone := fs.String("phone", "", "customer phone")
	email := fs.String("email", "", "customer email")
	hold := fs.String("hold", "", "hold key to redeem (optional)")

	fs.Parse(args)

	if *restaurant == "" || *date == "" || *start == "" || *end == "" {
		fmt.Println("Error: restaurant, date, start, and end are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"date":          *date,
		"startTime":     *start,
		"endTime":       *end,
		"partySize":     *party,
		"customerName":  *name,
		"customerPhone": *phone,
		"customerEmail": *email,
	}
	if *table != "" {
		payload["tableId"] = *table
	}
	if *hold != "" {
		payload["holdKey"] = *hold
	}

	result, status := postJSON("/restaurants/"+*restaurant+"/reservations", payload)
	if status == 201 {
		fmt.Printf("✓ Reservation %v booked on table %v\n", result["id"], result["tableId"])
	} else {
		fmt.Printf("✗ Booking failed: %v\n", result)
	}
}

func transitionReservation(action string, args []string) {
	fs := flag.NewFlagSet(action, flag.ExitOnError)
	restaurant := fs.String("restaurant", "", "restaurant ID")
	slot := fs.String("slot", "", "reservation slot ID")

	fs.Parse(args)

	if *restaurant == "" || *slot == "" {
		fmt.Println("Error: restaurant and slot are required")
		fs.PrintDefaults()
		return
	}

	path := "/restaurants/" + *restaurant + "/reservations/" + *slot + "/" + action
	result, status := postJSON(path, map[string]string{})
	if status >= 200 && status < 300 {
		fmt.Printf("✓ Reservation %s: %v\n", action, result["status"])
	} else {
		fmt.Printf("✗ %s failed: %v\n", action, result)
	}
}

// Availability commands
func searchAvailability(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	restaurant := fs.String("restaurant", "", "restaurant ID")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	start := fs.String("start", "", "start time (HH:MM)")
	end := fs.String("end", "", "end time (HH:MM)")
	party := fs.Int("party", 2, "party size")

	fs.Parse(args)

	if *restaurant == "" || *date == "" || *start == "" || *end == "" {
		fmt.Println("Error: restaurant, date, start, and end are required")
		fs.PrintDefaults()
		return
	}

	query := fmt.Sprintf("?date=%s&start=%s&end=%s&partySize=%d", *date, *start, *end, *party)
	req, _ := http.NewRequest("GET", getAPIURL()+"/restaurants/"+*restaurant+"/availability"+query, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Tables []map[string]interface{} `json:"tables"`
		Best   map[string]interface{}   `json:"best"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tSEATS\tLOCATION")
	for _, t := range result.Tables {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", t["id"], t["number"], t["seats"], t["location"])
	}
	w.Flush()
	if result.Best != nil {
		fmt.Printf("Best fit: table %v (%v seats)\n", result.Best["number"], result.Best["seats"])
	}
}

func showRates(args []string) {
	fs := flag.NewFlagSet("rates", flag.ExitOnError)
	restaurant := fs.String("restaurant", "", "restaurant ID")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	at := fs.String("at", "", "time of day (HH:MM)")

	fs.Parse(args)

	if *restaurant == "" || *date == "" || *at == "" {
		fmt.Println("Error: restaurant, date, and at are required")
		fs.PrintDefaults()
		return
	}

	query := fmt.Sprintf("?date=%s&at=%s", *date, *at)
	req, _ := http.NewRequest("GET", getAPIURL()+"/restaurants/"+*restaurant+"/rates"+query, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	fmt.Printf("availability: %v\nutilization:  %v\n", result["availability_rate"], result["utilization_rate"])
}

func checkAccommodate(args []string) {
	fs := flag.NewFlagSet("accommodate", flag.ExitOnError)
	restaurant := fs.String("restaurant", "", "restaurant ID")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	party := fs.Int("party", 2, "party size")

	fs.Parse(args)

	if *restaurant == "" || *date == "" {
		fmt.Println("Error: restaurant and date are required")
		fs.PrintDefaults()
		return
	}

	query := fmt.Sprintf("?date=%s&partySize=%d", *date, *party)
	req, _ := http.NewRequest("GET", getAPIURL()+"/restaurants/"+*restaurant+"/accommodate"+query, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	fmt.Printf("canAccommodate: %v\n", result["canAccommodate"])
}

// Hold commands
func placeHold(args []string) {
	fs := flag.NewFlagSet("place", flag.ExitOnError)
	restaurant := fs.String("restaurant", "", "restaurant ID")
	table := fs.String("table", "", "table ID")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	start := fs.String("start", "", "start time (HH:MM)")
	end := fs.String("end", "", "end time (HH:MM)")
	party := fs.Int("party", 2, "party size")

	fs.Parse(args)

	if *restaurant == "" || *table == "" || *date == "" || *start == "" || *end == "" {
		fmt.Println("Error: restaurant, table, date, start, and end are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"tableId":   *table,
		"date":      *date,
		"startTime": *start,
		"endTime":   *end,
		"partySize": *party,
	}
	result, status := postJSON("/restaurants/"+*restaurant+"/holds", payload)
	if status == 201 {
		fmt.Printf("✓ Hold placed: %v\n", result["key"])
	} else {
		fmt.Printf("✗ Hold failed: %v\n", result)
	}
}

func listHolds(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve hold list <restaurant-id>")
		return
	}
	req, _ := http.NewRequest("GET", getAPIURL()+"/restaurants/"+args[0]+"/holds", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var holds []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&holds)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTABLE\tDATE\tSTART\tEND")
	for _, h := range holds {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", h["key"], h["tableId"], h["date"], h["startTime"], h["endTime"])
	}
	w.Flush()
}

func releaseHold(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tablereserve hold release <hold-key>")
		return
	}
	req, _ := http.NewRequest("DELETE", getAPIURL()+"/holds/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 204 {
		fmt.Println("✓ Hold released")
	} else {
		fmt.Printf("✗ Release failed (status %d)\n", resp.StatusCode)
	}
}

// Helper functions
func postJSON(path string, payload interface{}) (map[string]interface{}, int) {
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, 0
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode
}

func putJSON(path string, payload interface{}) (map[string]interface{}, int) {
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("PUT", getAPIURL()+path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, 0
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode
}

func getAPIURL() string {
	if url := os.Getenv("TABLERESERVE_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.tablereserve/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.tablereserve", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`TableReserve CLI

Usage:
  tablereserve <command> [options]

Commands:
  auth          Staff authentication (register, login, logout, who)
  restaurant    Restaurant operations (create, list, get, delete, activate, deactivate)
  table         Table operations (add, availability)
  reservation   Reservation operations (book, confirm, cancel, complete)
  availability  Availability queries (search, rates, accommodate)
  hold          Hold operations (place, list, release)
  help          Show this help message

Environment Variables:
  TABLERESERVE_API    API endpoint (default: http://localhost:8080/api)

Examples:
  tablereserve auth login -email host@example.com -password pass
  tablereserve restaurant create -name "Trattoria Nonna" -address "12 Vine St"
  tablereserve table add -restaurant <id> -seats 4 -location indoor
  tablereserve reservation book -restaurant <id> -date 2026-09-01 -start 19:00 -end 21:00 -party 2
  tablereserve availability search -restaurant <id> -date 2026-09-01 -start 19:00 -end 21:00
`)
}
